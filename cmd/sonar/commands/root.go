package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configDirName  = ".sonar"
	configFileName = "config"
	configFileType = "yml"
	envPrefix      = "SONAR"
)

// NewRootCommand creates the sonar command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sonar",
		Short: "SonarQube and SonarCloud Web API CLI",
		Long: `A command-line interface for the SonarQube and SonarCloud Web API.

This CLI covers projects, issues, measures, quality gates, rules, webhooks,
users, tokens and compute engine tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.sonar/config.yml)")
	flags.StringP("url", "u", "", "server URL")
	flags.StringP("token", "t", "", "authentication token")
	flags.String("organization", "", "SonarCloud organization key")
	flags.String("output", "table", "output format (table, json, yaml)")
	flags.Duration("timeout", 0, "HTTP timeout per request")
	flags.BoolP("verbose", "v", false, "verbose output")

	for _, name := range []string{"url", "token", "organization", "output", "timeout", "verbose"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	// SONAR_HOST_URL is what the scanners read.
	_ = viper.BindEnv("url", "SONAR_URL", "SONAR_HOST_URL")

	rootCmd.AddCommand(NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewSystemCommand())
	rootCmd.AddCommand(NewProjectsCommand())
	rootCmd.AddCommand(NewIssuesCommand())
	rootCmd.AddCommand(NewMetricsCommand())
	rootCmd.AddCommand(NewMeasuresCommand())
	rootCmd.AddCommand(NewQualityGatesCommand())
	rootCmd.AddCommand(NewRulesCommand())
	rootCmd.AddCommand(NewWebhooksCommand())
	rootCmd.AddCommand(NewUsersCommand())
	rootCmd.AddCommand(NewTokensCommand())
	rootCmd.AddCommand(NewCECommand())

	return rootCmd
}

func initConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}

		viper.AddConfigPath(filepath.Join(home, configDirName))
		viper.SetConfigType(configFileType)
		viper.SetConfigName(configFileName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", viper.ConfigFileUsed())
		}
	}

	return nil
}
