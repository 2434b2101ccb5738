package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background Phoenix server",
		Long:  "Stop a Phoenix server that was started with 'phoenix serve --background'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStop(cmd.OutOrStdout(), wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 5*time.Second, "How long to wait for the server to drain and exit")

	return cmd
}

func runStop(out io.Writer, wait time.Duration) error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no running server found (missing PID file at %s)", pidFilePath())
	}

	if !isProcessRunning(pid) {
		removePID()
		return fmt.Errorf("server (PID %d) is not running (stale PID file removed)", pid)
	}

	fmt.Fprintf(out, "Stopping Phoenix server (PID %d)...\n", pid)

	if err := stopProcess(pid); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if !isProcessRunning(pid) {
			removePID()
			fmt.Fprintln(out, "Server stopped.")
			return nil
		}
	}

	return fmt.Errorf("server (PID %d) did not stop within %s; it may still be draining connections", pid, wait)
}
