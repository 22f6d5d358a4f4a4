package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/namaz/internal/config"
	"github.com/smokyabdulrahman/namaz/internal/server"
)

var (
	flagTokenEnvFile string
	flagTokenUser    string
	flagTokenTTL     time.Duration
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token for a local server",
		Long: "Sign a bearer token for 'namaz serve' with the server's JWT_SECRET.\n" +
			"Hosted deployments get tokens from their auth provider; this is for running\n" +
			"the API yourself. The user defaults to user_id from the config file.",
		Args: cobra.NoArgs,
		RunE: runToken,
	}
	cmd.Flags().StringVar(&flagTokenEnvFile, "env-file", ".env", "File of KEY=value settings to load")
	cmd.Flags().StringVar(&flagTokenUser, "user", "", "User UUID (default: config user_id)")
	cmd.Flags().DurationVar(&flagTokenTTL, "ttl", 30*24*time.Hour, "Token lifetime")
	return cmd
}

type tokenJSON struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func runToken(cmd *cobra.Command, args []string) error {
	srvCfg, err := config.LoadServer(flagTokenEnvFile)
	if err != nil {
		return err
	}
	if flagTokenTTL <= 0 {
		return fmt.Errorf("invalid --ttl %s: must be positive", flagTokenTTL)
	}

	user := flagTokenUser
	if user == "" && loadedConfig != nil {
		user = loadedConfig.UserID
	}
	if user == "" {
		return fmt.Errorf("no user: pass --user or run 'namaz config set user_id <uuid>'")
	}
	id, err := uuid.Parse(user)
	if err != nil {
		return fmt.Errorf("invalid user %q: must be a UUID", user)
	}

	tok, err := server.IssueToken(srvCfg.JWTSecret, id.String(), flagTokenTTL)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	out := cmd.OutOrStdout()
	if FlagJSON {
		return writeJSON(out, tokenJSON{UserID: id.String(), Token: tok, ExpiresAt: time.Now().Add(flagTokenTTL).UTC().Truncate(time.Second)})
	}
	fmt.Fprintln(out, tok)
	return nil
}
