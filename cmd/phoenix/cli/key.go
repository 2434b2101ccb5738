package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys client applications present in the X-API-KEY header.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		label    string
		validFor string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The raw key is shown once and cannot be retrieved again.",
		Example: `  phoenix key create --label "iOS app"
  phoenix key create --label ci --valid-for P7D
  phoenix key create --label ci --valid-for 72h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(cmd, label, validFor, jsonOut)
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Human-readable label for the key (required)")
	cmd.Flags().StringVar(&validFor, "valid-for", "", "Key lifetime as a Go or ISO-8601 duration (default: apikey.expiration_offset_ms)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("label")

	return cmd
}

func runKeyCreate(cmd *cobra.Command, label, validFor string, jsonOut bool) error {
	req := model.APIKeyRequest{Label: label}
	if validFor != "" {
		d, err := model.ParseDuration(validFor)
		if err != nil {
			return fmt.Errorf("--valid-for: %w", err)
		}
		v := model.Duration(d)
		req.ValidFor = &v
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	resp, err := service.NewAdminService(st, cfg.APIKeyLifetime()).CreateAPIKey(cmd.Context(), req)
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return printJSON(out, resp)
	}

	fmt.Fprintln(out, "API Key created:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Key:     %s\n", resp.APIKey)
	fmt.Fprintf(out, "  Label:   %s\n", label)
	if resp.ExpiresAt != nil {
		fmt.Fprintf(out, "  Expires: %s\n", resp.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runKeyList(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	keys, err := service.NewAdminService(st, cfg.APIKeyLifetime()).ListAPIKeys(cmd.Context())
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, keys)
	}

	if len(keys) == 0 {
		fmt.Fprintln(out, "No API keys configured. Use 'phoenix key create' to create one.")
		return nil
	}

	now := time.Now()
	fmt.Fprintf(out, "%-6s %-24s %-8s %-22s %-22s\n", "ID", "LABEL", "ACTIVE", "EXPIRES", "LAST USED")
	fmt.Fprintf(out, "%-6s %-24s %-8s %-22s %-22s\n", "--", "-----", "------", "-------", "---------")
	for _, k := range keys {
		active := yesNo(k.Active)
		if k.Active && k.ExpiredAt(now) {
			active = "expired"
		}
		fmt.Fprintf(out, "%-6d %-24s %-8s %-22s %-22s\n", k.ID, k.Label, active, formatTime(k.ExpiresAt), formatTime(k.LastUsedAt))
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke an API key by its ID",
		Long:  "Deactivate an API key, rejecting any further requests that present it. The key record is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key id %q", args[0])
			}
			return runKeyRevoke(cmd, id)
		},
	}

	return cmd
}

func runKeyRevoke(cmd *cobra.Command, id int64) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := service.NewAdminService(st, cfg.APIKeyLifetime()).RevokeAPIKey(cmd.Context(), id); err != nil {
		return describe(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Revoked API key %d\n", id)
	return nil
}
