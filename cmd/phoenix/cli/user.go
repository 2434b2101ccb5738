package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
		Long:  "Create, list, enable and disable user accounts, including ADMIN accounts that may issue API keys.",
	}

	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserSetEnabledCmd("enable", "Enable a user account", true))
	cmd.AddCommand(newUserSetEnabledCmd("disable", "Disable a user account", false))

	return cmd
}

// ---------- user create ----------

func newUserCreateCmd() *cobra.Command {
	var (
		req   model.RegisterRequest
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Example: `  phoenix user create --username root --email root@example.com --admin
  phoenix user create --username alice --email alice@example.com --password s3cret!`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserCreate(cmd, req, admin)
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the ADMIN role")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runUserCreate(cmd *cobra.Command, req model.RegisterRequest, admin bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if req.Password == "" {
		pw, err := readPassword(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		req.Password = pw
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	role := model.RoleUser
	if admin {
		role = model.RoleAdmin
	}

	auth := service.NewAuthService(st, nil, cfg.Auth.BcryptCost)
	u, err := auth.CreateUser(cmd.Context(), req, role)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %q (id %d)\n", u.Role, u.Username, u.ID)
	return nil
}

// ---------- user list ----------

func newUserListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runUserList(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := service.NewAdminService(st, cfg.APIKeyLifetime()).ListUsers(cmd.Context())
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, users)
	}

	if len(users) == 0 {
		fmt.Fprintln(out, "No users. Use 'phoenix user create' to create one.")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-20s %-30s %-6s %-8s\n", "ID", "USERNAME", "EMAIL", "ROLE", "ENABLED")
	fmt.Fprintf(out, "%-6s %-20s %-30s %-6s %-8s\n", "--", "--------", "-----", "----", "-------")
	for _, u := range users {
		fmt.Fprintf(out, "%-6d %-20s %-30s %-6s %-8s\n", u.ID, u.Username, u.Email, u.Role, yesNo(u.Enabled))
	}
	return nil
}

// ---------- user enable / disable ----------

func newUserSetEnabledCmd(verb, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <username>",
		Short: short,
		Long:  "Disabled users cannot log in and their session tokens stop working immediately.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SetUserEnabled(cmd.Context(), args[0], enabled); err != nil {
				return fmt.Errorf("%s user %q: %w", verb, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q %sd\n", args[0], verb)
			return nil
		},
	}
}
