package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/shelf/internal/auth"
	"github.com/mrlokans/shelf/internal/entities"
	"github.com/mrlokans/shelf/internal/entrypoint"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts for AUTH_MODE=local",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an account",
	Example: `  shelf user add --username editor --email editor@example.com --password s3cret --role admin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *entrypoint.App) error {
			authenticator := auth.NewUserAuthenticator(app.Users, cfg.Auth)
			user, err := authenticator.CreateUser(userName, userEmail, userPassword, entities.UserRole(userRole))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s (%s)\n", user.Role, user.Username, user.Email)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().StringVar(&userName, "username", "", "Login name (required)")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password (required)")
	userAddCmd.Flags().StringVar(&userRole, "role", string(entities.UserRoleViewer), "admin or viewer")
	_ = userAddCmd.MarkFlagRequired("username")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")
}
