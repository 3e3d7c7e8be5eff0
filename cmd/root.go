package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xcaliber/xcaliber-bot/config"

	// Register the SCM gateways
	_ "github.com/xcaliber/xcaliber-bot/scm/github"
)

const configFlag = "config"

// RootCmd configures the top-level root command along with all subcommands and flags
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xcaliber-bot",
		Short: "Pull-request lifecycle automation for the xcaliber repositories",
		Long: `Pull-request lifecycle automation for the xcaliber repositories

When a PR opens, the bot validates provenance, assigns reviewers, mirrors the
PR into dependent repositories, derives labels and issue links from commit
messages, and posts a consolidated status comment. It later reconciles review
approvals and e2e test results delivered over the event channel.`,
		Version: config.Version,
	}

	rootCmd.AddCommand(serveCmd())

	rootCmd.PersistentFlags().StringVar(&config.CfgFile, configFlag, "", "config file (default is xcaliber-bot.yaml)")

	cobra.OnInitialize(config.Init)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
