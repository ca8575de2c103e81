package cli

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyes/netlayer/transport"
)

// run executes one netlayer invocation with an isolated config file.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfg, "--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	a := ln.Addr().String()
	require.NoError(t, ln.Close())
	return a
}

func openReceiver(t *testing.T) *transport.TCPTransport {
	t.Helper()
	tr, err := transport.NewTCP("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, tr.Open(context.Background()))
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "netlayer version "+Version)
}

func TestListenAndSend(t *testing.T) {
	for _, tc := range []struct {
		format string
		want   string
	}{
		{"text", "hello netlayer"},
		{"hex", "68656c6c6f206e65746c61796572"},
	} {
		t.Run(tc.format, func(t *testing.T) {
			listenAddr := freeAddr(t)

			type result struct {
				out string
				err error
			}
			done := make(chan result, 1)
			go func() {
				out, _, err := run(t, "--listen", listenAddr, "-o", tc.format, "listen", "--count", "1")
				done <- result{out, err}
			}()

			// 监听可能尚未就绪，重试直到发送成功
			require.Eventually(t, func() bool {
				_, _, err := run(t, "send", listenAddr, "hello netlayer")
				return err == nil
			}, 5*time.Second, 20*time.Millisecond)

			select {
			case r := <-done:
				require.NoError(t, r.err)
				assert.Equal(t, tc.want+"\n", r.out)
			case <-time.After(5 * time.Second):
				t.Fatal("listen did not exit after one payload")
			}
		})
	}
}

func TestSendFromFile(t *testing.T) {
	rx := openReceiver(t)
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2, 3}, 0o644))

	out, _, err := run(t, "send", rx.Addr(), "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sent 4 bytes")

	got, err := rx.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, got)
}

func TestSendFromStdin(t *testing.T) {
	rx := openReceiver(t)

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("from stdin"))
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "send", rx.Addr(), "-f", "-"})
	require.NoError(t, cmd.Execute())

	got, err := rx.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(got))
}

func TestSendErrors(t *testing.T) {
	_, _, err := run(t, "send", "no-port", "x")
	assert.ErrorIs(t, err, transport.ErrAddress)

	_, _, err = run(t, "send", "127.0.0.1:1")
	assert.ErrorContains(t, err, "nothing to send")

	_, _, err = run(t, "send", "127.0.0.1:1", "x", "--file", "a.bin")
	assert.ErrorContains(t, err, "not both")

	_, _, err = run(t, "send", freeAddr(t), "x")
	assert.ErrorIs(t, err, transport.ErrConnect)
}

func TestBroadcast(t *testing.T) {
	a := openReceiver(t)
	b := openReceiver(t)

	out, _, err := run(t, "broadcast", "--peer", a.Addr()+","+b.Addr(), "fan out")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "OK"))

	for _, rx := range []*transport.TCPTransport{a, b} {
		got, err := rx.Receive(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fan out", string(got))
	}
}

func TestBroadcastReportsFailures(t *testing.T) {
	rx := openReceiver(t)
	dead := freeAddr(t)

	out, _, err := run(t, "broadcast", "-p", rx.Addr(), "-p", dead, "-p", "bogus", "partial")
	require.Error(t, err)
	assert.Equal(t, "2 of 3 peers failed", err.Error())
	assert.Contains(t, out, "OK")
	assert.Equal(t, 2, strings.Count(out, "FAIL"))

	got, err := rx.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "partial", string(got))
}

func TestBroadcastPeersFromConfig(t *testing.T) {
	rx := openReceiver(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("peers:\n  - "+rx.Addr()+"\n"), 0o644))

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "broadcast", "configured"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), rx.Addr())

	got, err := rx.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "configured", string(got))
}

func TestBroadcastWithoutPeers(t *testing.T) {
	_, _, err := run(t, "broadcast", "nobody")
	assert.ErrorContains(t, err, "no peers")
}

func TestRootFlagValidation(t *testing.T) {
	_, _, err := run(t, "-o", "base64", "version")
	assert.ErrorContains(t, err, "unknown output format")

	_, _, err = run(t, "--log-level", "loud", "version")
	assert.Error(t, err)
}
