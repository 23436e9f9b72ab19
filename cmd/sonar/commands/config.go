package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/sonar-client/internal/constants"
)

// Config represents the CLI configuration.
type Config struct {
	URL          string `json:"url,omitempty"          yaml:"url,omitempty"`
	Token        string `json:"token,omitempty"        yaml:"token,omitempty"`
	TokenName    string `json:"token_name,omitempty"   yaml:"token_name,omitempty"`
	AuthScheme   string `json:"auth_scheme,omitempty"  yaml:"auth_scheme,omitempty"`
	Username     string `json:"username,omitempty"     yaml:"username,omitempty"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
	Output       string `json:"output,omitempty"       yaml:"output,omitempty"`
}

// configKeys lists the keys accepted by config set and unset.
var configKeys = []string{"url", "token", "token_name", "auth_scheme", "username", "organization", "output"}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the sonar CLI configuration stored in $HOME/.sonar/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Token = maskSecret(config.Token)

			return render(cmd, config, func(w io.Writer, config *Config) error {
				return renderProperties(w, [][2]string{
					{"URL", orNotAvailable(config.URL)},
					{"Token", orNotAvailable(config.Token)},
					{"Token Name", orNotAvailable(config.TokenName)},
					{"Auth Scheme", orNotAvailable(config.AuthScheme)},
					{"Username", orNotAvailable(config.Username)},
					{"Organization", orNotAvailable(config.Organization)},
					{"Output", orNotAvailable(config.Output)},
					{"Config File", configFilePath()},
				})
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := config.set(args[0], args[1]); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value. Keys: " + strings.Join(configKeys, ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := config.set(args[0], ""); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all configuration",
		Long:  "Remove every value from the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				ok, err := confirm(cmd, "Clear all configuration?")
				if err != nil {
					return err
				}

				if !ok {
					return ErrAborted
				}
			}

			if err := saveConfigStruct(&Config{}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Configuration cleared")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")

	return cmd
}

func (c *Config) set(key, value string) error {
	switch key {
	case "url":
		c.URL = value
	case "token":
		c.Token = value
	case "token_name":
		c.TokenName = value
	case "auth_scheme":
		if value != "" && !slices.Contains([]string{constants.AuthSchemeBearer, constants.AuthSchemeBasic}, value) {
			return fmt.Errorf("auth_scheme must be %s or %s", constants.AuthSchemeBearer, constants.AuthSchemeBasic)
		}

		c.AuthScheme = value
	case "username":
		c.Username = value
	case "organization":
		c.Organization = value
	case "output":
		c.Output = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	return nil
}

func loadConfig() *Config {
	return &Config{
		URL:          viper.GetString("url"),
		Token:        viper.GetString("token"),
		TokenName:    viper.GetString("token_name"),
		AuthScheme:   viper.GetString("auth_scheme"),
		Username:     viper.GetString("username"),
		Organization: viper.GetString("organization"),
		Output:       viper.GetString("output"),
	}
}

func configFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDirName, configFileName+"."+configFileType)
	}

	return filepath.Join(home, configDirName, configFileName+"."+configFileType)
}

func saveConfigStruct(config *Config) error {
	path := configFilePath()

	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
