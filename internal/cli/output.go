package cli

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/shinyes/netlayer/metrics"
	"github.com/shinyes/netlayer/transport"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func renderPayload(format string, payload []byte) string {
	if format == "hex" {
		return hex.EncodeToString(payload)
	}
	return string(payload)
}

// renderBroadcast prints one line per peer, in the order given.
func renderBroadcast(peers []string, be *transport.BroadcastError) string {
	failed := make(map[string]error)
	if be != nil {
		for _, pe := range be.Failed {
			failed[pe.Addr] = pe.Err
		}
	}

	width := 0
	for _, p := range peers {
		width = max(width, len(p))
	}

	var b strings.Builder
	for _, p := range peers {
		name := fmt.Sprintf("%-*s", width, p)
		if err, ok := failed[p]; ok {
			fmt.Fprintf(&b, "%s  %s %s\n", name, failStyle.Render("FAIL"), dimStyle.Render(err.Error()))
		} else {
			fmt.Fprintf(&b, "%s  %s\n", name, okStyle.Render("OK"))
		}
	}
	return b.String()
}

func renderStats(s metrics.Snapshot) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("transport stats"))
	b.WriteString("\n")
	rows := [][2]string{
		{"uptime", s.Uptime.Round(time.Millisecond).String()},
		{"connections", fmt.Sprint(s.ConnsAccepted)},
		{"payloads", fmt.Sprint(s.ReceivesTotal)},
		{"bytes", fmt.Sprint(s.BytesReceived)},
		{"failed", fmt.Sprint(s.ReceivesFailed)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-12s %s\n", dimStyle.Render(r[0]), r[1])
	}
	return b.String()
}
