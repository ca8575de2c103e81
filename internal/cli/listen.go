package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newListenCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Open the listener and print every received payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runListen(ctx, cmd, count)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after this many payloads (0 means run until interrupted)")
	return cmd
}

func (a *app) runListen(ctx context.Context, cmd *cobra.Command, count int) error {
	tr, err := a.newTransport()
	if err != nil {
		return err
	}
	if err := tr.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := tr.Close(); err != nil {
			a.logger.Warn("close listener: %v", err)
		}
		fmt.Fprint(cmd.ErrOrStderr(), renderStats(tr.Metrics().GetSnapshot()))
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintln(cmd.ErrOrStderr(), headerStyle.Render("listening on "+tr.Addr()))

	for received := 0; count == 0 || received < count; {
		payload, err := tr.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			// 单个连接失败不影响后续接收
			a.logger.Warn("receive failed: %v", err)
			continue
		}
		received++
		fmt.Fprintln(out, renderPayload(a.format, payload))
	}
	return nil
}
