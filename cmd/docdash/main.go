package main

// @title           docdash API
// @version         1.0
// @description     Document dashboard API. Upload, list, rename, label and delete documents, and ask keyword questions about CSV files.

// @contact.name   docdash maintainers
// @contact.url    https://github.com/custodia-labs/docdash/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docdash/internal/config"
)

var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "docdash",
	Short:         "Document dashboard with CSV chat",
	Long:          "docdash serves the document dashboard API and processes CSV analysis tasks.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "")
	},
}

func modeCommand(mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, mode)
		},
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (environment variables take precedence)")

	rootCmd.AddCommand(
		modeCommand(config.ModeAPI, "Run the HTTP API only"),
		modeCommand(config.ModeWorker, "Run the analysis worker and sweeper only"),
		modeCommand(config.ModeAll, "Run the API and the worker in one process"),
		askCmd,
		configCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
