package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/di/providers"
)

// TokenResult is the output of the token command.
type TokenResult struct {
	UName       string `json:"uname"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <uname>",
		Short: "Mint an access token for an existing user",
		Long: `Mint an access token signed with the server's key from the data directory.

Useful for scripting against the API without a password.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			injector, err := rootOpts.open(cmd)
			if err != nil {
				return err
			}
			defer closeQuietly(injector)

			st, err := invoke[*providers.StoreHandle](injector)
			if err != nil {
				return err
			}
			tokens, err := invoke[*auth.TokenService](injector)
			if err != nil {
				return err
			}

			user, err := st.GetUserByUName(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, fmt.Sprintf("user %q", args[0]), err)
			}

			token, err := tokens.GenerateAccessToken(user)
			if err != nil {
				return WrapExitError(ExitCommandError, "sign token", err)
			}

			result := TokenResult{
				UName:       user.UName,
				AccessToken: token,
				ExpiresIn:   int(tokens.AccessTokenDuration() / time.Second),
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.AccessToken)
			return err
		},
	}
}
