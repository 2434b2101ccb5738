package cli

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check if the Phoenix server is running",
		Long:  "Check the status of a background Phoenix server: process state and HTTP health.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.OutOrStdout())
		},
	}
}

func runStatus(out io.Writer) error {
	pid, err := readPID()
	if err != nil {
		fmt.Fprintln(out, "Server is not running (no PID file found).")
		return nil
	}

	if !isProcessRunning(pid) {
		removePID()
		fmt.Fprintln(out, "Server is not running (stale PID file removed).")
		return nil
	}

	healthAddr := "http://" + localAddr(viper.GetString("server.host"), viper.GetInt("server.port")) + "/healthz"
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(healthAddr)
	if err != nil {
		fmt.Fprintf(out, "Server process is running (PID %d) but not responding to HTTP.\n", pid)
		fmt.Fprintf(out, "  Logs: %s\n", logFilePath())
		return nil
	}
	resp.Body.Close()

	fmt.Fprintf(out, "Server is running (PID %d)\n", pid)
	fmt.Fprintf(out, "  Health:  %s (%d)\n", healthAddr, resp.StatusCode)
	fmt.Fprintf(out, "  Logs:    %s\n", logFilePath())
	return nil
}

// localAddr turns a listen address into one a local client can dial.
func localAddr(host string, port int) string {
	if port == 0 {
		port = 8080
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
