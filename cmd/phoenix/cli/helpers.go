package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tomislavmiksik/phoenix-be/internal/config"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
	"github.com/tomislavmiksik/phoenix-be/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// PHOENIX_DATA_DIR env var, or ~/.phoenix as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv(config.EnvPrefix + "_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".phoenix")
}

// loadConfig resolves the effective configuration from viper.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// openStore connects to the configured database. An empty sqlite DSN
// selects phoenix.db inside the data directory.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.Driver == store.DialectSQLite && dsn == "" {
		path, err := store.SQLitePath(resolveDataDir())
		if err != nil {
			return nil, err
		}
		dsn = path
	}
	st, err := store.Open(ctx, cfg.Database.Driver, dsn, store.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// readPassword prompts on the terminal without echo and asks for
// confirmation.
func readPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --password")
	}

	fmt.Fprint(out, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(pw) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pw), nil
}

// describe flattens a validation failure into one line per field so the
// terminal shows what to fix.
func describe(err error) error {
	var se *service.Error
	if !errors.As(err, &se) || len(se.Fields) == 0 {
		return err
	}
	fields := make([]string, 0, len(se.Fields))
	for f := range se.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(se.Message)
	for _, f := range fields {
		fmt.Fprintf(&b, "\n  %s: %s", f, se.Fields[f])
	}
	return errors.New(b.String())
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "phoenix.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "phoenix.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
