package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinyes/netlayer/internal/addr"
	"github.com/shinyes/netlayer/transport"
)

// readPayload resolves the payload from a positional message, --file, or stdin ("-").
func readPayload(cmd *cobra.Command, args []string, file string) ([]byte, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, fmt.Errorf("give either a message or --file, not both")
	case file == "-":
		return io.ReadAll(cmd.InOrStdin())
	case file != "":
		return os.ReadFile(file)
	case len(args) > 0:
		return []byte(args[0]), nil
	default:
		return nil, fmt.Errorf("nothing to send: pass a message or --file")
	}
}

func newSendCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "send <host:port> [message]",
		Short: "Send one payload to a single peer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, port, err := addr.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", transport.ErrAddress, err)
			}
			payload, err := readPayload(cmd, args[1:], file)
			if err != nil {
				return err
			}

			tr, err := a.newTransport()
			if err != nil {
				return err
			}
			if err := tr.Send(cmd.Context(), host, port, payload); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("sent %d bytes to %s", len(payload), args[0])))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the payload from a file (\"-\" for stdin)")
	return cmd
}
