package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	identityapp "github.com/propledger/backend/internal/application/identity"
	"github.com/propledger/backend/internal/domain/identity"
	"github.com/propledger/backend/internal/infrastructure/auth"
	"github.com/propledger/backend/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user <username>",
	Short: "Create a user and open its ledger account",
	Example: `  # Bootstrap the first administrator
  ledgerctl create-user admin --role admin --password 's3cret!'`,
	Args: cobra.ExactArgs(1),
	RunE: withRuntime(func(cmd *cobra.Command, args []string, rt *runtime) error {
		flags := cmd.Flags()
		rawRole, _ := flags.GetString("role")
		password, _ := flags.GetString("password")
		email, _ := flags.GetString("email")
		first, _ := flags.GetString("first-name")
		last, _ := flags.GetString("last-name")

		role, err := identity.ParseRole(rawRole)
		if err != nil {
			return err
		}

		req := identityapp.CreateUserRequest{
			Username:  args[0],
			Password:  password,
			Role:      role,
			Email:     email,
			FirstName: first,
			LastName:  last,
		}
		if role == identity.RoleTenant {
			req.Tenant = &identityapp.TenantProfile{Activate: true}
		}

		user, err := rt.users.CreateUser(cmd.Context(), identity.SystemActor(), req)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	}),
}

// token needs only the JWT settings, not a database
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Sign an access token for an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		flags := cmd.Flags()
		rawRole, _ := flags.GetString("role")
		username, _ := flags.GetString("username")
		ttl, _ := flags.GetDuration("ttl")

		role, err := identity.ParseRole(rawRole)
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		token, exp, err := auth.NewJWTService(cfg.JWT).Generate(auth.GenerateTokenInput{
			UserID:   userID,
			Username: username,
			Role:     role,
			TTL:      ttl,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd, tokenCmd)

	createUserCmd.Flags().String("role", string(identity.RoleTenant), "Role: admin, property_manager, landlord, tenant, caretaker, agent")
	createUserCmd.Flags().String("password", "", "Initial password")
	createUserCmd.Flags().String("email", "", "Email address")
	createUserCmd.Flags().String("first-name", "", "First name")
	createUserCmd.Flags().String("last-name", "", "Last name")
	_ = createUserCmd.MarkFlagRequired("password")

	tokenCmd.Flags().String("role", string(identity.RoleAdmin), "Role embedded in the token")
	tokenCmd.Flags().String("username", "", "Username embedded in the token")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default: configured expiration)")
}
