package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinyes/netlayer/transport"
)

func newBroadcastCmd(a *app) *cobra.Command {
	var (
		file  string
		peers []string
	)

	cmd := &cobra.Command{
		Use:   "broadcast [message]",
		Short: "Send one payload to every peer concurrently",
		Long: `Send one payload to every peer concurrently. Peers come from --peer
or, when none are given, from the "peers" list of the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(peers) == 0 {
				peers = a.cfg.Peers
			}
			if len(peers) == 0 {
				return fmt.Errorf("no peers: pass --peer or set peers in the config file")
			}
			payload, err := readPayload(cmd, args, file)
			if err != nil {
				return err
			}

			tr, err := a.newTransport()
			if err != nil {
				return err
			}
			sendErr := tr.Broadcast(cmd.Context(), payload, peers)

			var be *transport.BroadcastError
			if sendErr != nil && !errors.As(sendErr, &be) {
				return sendErr
			}
			fmt.Fprint(cmd.OutOrStdout(), renderBroadcast(peers, be))
			if be != nil {
				return fmt.Errorf("%d of %d peers failed", len(be.Failed), be.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the payload from a file (\"-\" for stdin)")
	cmd.Flags().StringSliceVarP(&peers, "peer", "p", nil, "peer address host:port (repeatable, comma separated)")
	return cmd
}
