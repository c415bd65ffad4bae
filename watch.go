package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard-go/internal/api"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream session and server events",
		Long: `Subscribe to the server's event stream and print session-lifecycle
events as they arrive. Locally-detected failures (network errors, retry
exhaustion) appear on the same feed. Runs until interrupted.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	ctx := shutdownContext(cmd.Context(), cc.Logger)

	client, err := newClient(ctx, cc)
	if err != nil {
		return err
	}

	events, cancel := client.Bus().Subscribe()
	defer cancel()

	// The stream feeds the bus; the loop below drains it. Printing stops
	// when the stream ends or the context is canceled.
	streamErr := make(chan error, 1)
	go func() {
		streamErr <- client.StreamEvents(ctx)
	}()

	cc.Statusf("Watching for events (Ctrl-C to stop)...\n")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-streamErr:
			return err
		case ev := <-events:
			printEvent(cc, ev)
		}
	}
}

// printEvent renders one bus event as a line (or a JSON object with --json).
func printEvent(cc *CLIContext, ev api.Event) {
	if cc.JSON {
		_ = printJSON(os.Stdout, ev)

		return
	}

	switch ev.Type {
	case api.EventSessionExpired:
		fmt.Printf("%s reason=%s\n", bold("session-expired"), ev.Reason)
	case api.EventServerError:
		fmt.Printf("%s status=%d url=%s\n", bold("server-error"), ev.Status, ev.URL)
	case api.EventNetworkError:
		fmt.Println(bold("network-error"))
	}
}
