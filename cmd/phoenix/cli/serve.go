package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tomislavmiksik/phoenix-be/internal/config"
	"github.com/tomislavmiksik/phoenix-be/internal/metrics"
	"github.com/tomislavmiksik/phoenix-be/internal/server"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

const banner = `
 ____  _                      _
|  _ \| |__   ___   ___ _ __ (_)_  __
| |_) | '_ \ / _ \ / _ \ '_ \| \ \/ /
|  __/| | | | (_) |  __/ | | | |>  <
|_|   |_| |_|\___/ \___|_| |_|_/_/\_\
`

func newServeCmd() *cobra.Command {
	var (
		dev        bool
		background bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Phoenix API server",
		Long:  "Start the HTTP server exposing registration, login, API key issuance and measurements.",
		Example: `  phoenix serve
  phoenix serve --port 9090 --dev
  phoenix serve --background   # detach; use 'phoenix status' and 'phoenix stop'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if background {
				return runBackground()
			}
			return runServe(cmd, dev)
		},
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP listen port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging)")
	cmd.Flags().BoolVar(&background, "background", false, "Run the server detached, logging to <data-dir>/phoenix.log")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(cmd *cobra.Command, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logger := config.NewLogger(cfg.Log, os.Stderr, dev)
	ctx := cmd.Context()

	fmt.Fprint(out, banner)
	fmt.Fprintln(out)

	// 1. Store
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("store initialized", "driver", st.Dialect())

	// 2. Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		if err := m.RegisterDB(st.DB(), st.Dialect()); err != nil {
			logger.Warn("failed to register database metrics", "error", err)
		}
	}

	// 3. Session tokens
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = service.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate signing key: %w", err)
		}
		logger.Warn("auth.jwt_secret is not set; using an ephemeral signing key, tokens will not survive a restart",
			"env", config.EnvPrefix+"_AUTH_JWT_SECRET")
	}
	tokens, err := service.NewTokenCodec(secret, cfg.TokenLifetime())
	if err != nil {
		return fmt.Errorf("auth.jwt_secret: %w", err)
	}

	// 4. Services
	auth := service.NewAuthService(st, tokens, cfg.Auth.BcryptCost)
	admin := service.NewAdminService(st, cfg.APIKeyLifetime())
	measurements := service.NewMeasurementService(st)

	srv := server.New(server.ConfigFrom(cfg, versionString()), server.Deps{
		Auth:         service.WithAuthLogging(auth, logger),
		Keys:         service.WithKeyLogging(admin, logger),
		Measurements: service.WithMeasurementLogging(measurements, logger),
		DB:           st,
		Metrics:      m,
	}, logger)

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "path", pidFilePath(), "error", err)
	}
	defer removePID()

	base := "http://" + srv.Addr()
	fmt.Fprintf(out, "→ Phoenix %s\n", versionString())
	fmt.Fprintf(out, "→ Listening on %s\n", base)
	fmt.Fprintf(out, "→ OpenAPI:    %s/openapi.json\n", base)
	fmt.Fprintf(out, "→ Health:     %s/healthz\n", base)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(out, "→ Metrics:    %s/metrics\n", base)
	}
	fmt.Fprintln(out)

	return srv.ListenAndServe()
}

// runBackground re-executes the current binary without --background,
// detached from the terminal, with output appended to the log file.
func runBackground() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	var args []string
	for _, a := range os.Args[1:] {
		if a == "--background" || strings.HasPrefix(a, "--background=") {
			continue
		}
		args = append(args, a)
	}

	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	if err := writePID(child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}

	fmt.Printf("Phoenix server started in background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	fmt.Println("  Stop: phoenix stop")
	return child.Process.Release()
}
