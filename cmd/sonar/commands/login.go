package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
	"github.com/fivetwenty-io/sonar-client/pkg/sonarclient"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		username   string
		password   string
		tokenName  string
		authScheme string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a SonarQube or SonarCloud server",
		Long: `Validate credentials against a server and store them in the configuration file.

With --token the token is stored as is. With a username and password a new
user token is generated and stored instead of the password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config := loadConfig()
			prompt := newPrompter(cmd)

			var err error

			if config.URL == "" {
				if config.URL, err = prompt.ask("Server URL: "); err != nil {
					return err
				}
			}

			if config.URL == "" {
				return ErrServerURLRequired
			}

			config.URL = sonarclient.NormalizeURL(config.URL)

			if config.Token == "" {
				if username == "" {
					if username, err = prompt.ask("Username (empty to enter a token): "); err != nil {
						return err
					}
				}

				if username == "" {
					if config.Token, err = prompt.askSecret("Token: "); err != nil {
						return err
					}
				} else if password == "" {
					if password, err = prompt.askSecret("Password: "); err != nil {
						return err
					}
				}
			}

			clientConfig := &sonar.Config{
				BaseURL:      config.URL,
				Token:        config.Token,
				AuthScheme:   authScheme,
				Organization: config.Organization,
				HTTPTimeout:  viper.GetDuration("timeout"),
			}
			if config.Token == "" {
				clientConfig.Username = username
				clientConfig.Password = password
			}

			if viper.GetBool("verbose") {
				clientConfig.Debug = true
				clientConfig.Logger = newLogger(cmd.ErrOrStderr())
			}

			client, err := sonarclient.New(ctx, clientConfig)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			valid, err := client.Authentication().Validate(ctx)
			if err != nil {
				return fmt.Errorf("failed to validate credentials: %w", err)
			}

			if !valid {
				return ErrInvalidCredentials
			}

			if config.Token == "" {
				if tokenName == "" {
					tokenName = defaultTokenName()
				}

				generated, err := client.UserTokens().Generate(ctx, &sonar.TokenGenerateRequest{Name: tokenName})
				if err != nil {
					return fmt.Errorf("failed to generate token: %w", err)
				}

				config.Token = generated.Token
				config.TokenName = generated.Name
				config.Username = generated.Login
				authScheme = ""
			}

			config.AuthScheme = authScheme

			if err := saveConfigStruct(config); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully logged in to %s\n", config.URL)

			if version, err := client.System().Version(ctx); err == nil {
				fmt.Fprintf(out, "Server version: %s\n", version)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login for password authentication")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&tokenName, "token-name", "", "name of the token generated for password logins")
	cmd.Flags().StringVar(&authScheme, "auth-scheme", "", "how a token is sent: bearer or basic")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  "Remove the stored token. With --revoke, a token generated by login is revoked on the server first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if revoke && config.TokenName != "" {
				client, err := createClient(cmd)
				if err != nil {
					return err
				}

				if err := client.UserTokens().Revoke(cmd.Context(), config.TokenName, ""); err != nil {
					return fmt.Errorf("failed to revoke token %s: %w", config.TokenName, err)
				}
			}

			config.Token = ""
			config.TokenName = ""
			config.Username = ""
			config.AuthScheme = ""

			if err := saveConfigStruct(config); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged out from %s\n", orNotAvailable(config.URL))

			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke the token generated by login")

	return cmd
}

func defaultTokenName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "cli"
	}

	return fmt.Sprintf("sonar-cli-%s-%s", host, time.Now().UTC().Format("20060102150405"))
}
