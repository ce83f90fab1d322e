// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docparse CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// dotEnvFile is loaded into the process environment before any command runs.
const dotEnvFile = ".env"

// rootCmd is the base command for the docparse CLI.
var rootCmd = &cobra.Command{
	Use:   "docparse",
	Short: "Parse documents into Markdown or text with LlamaParse",
	Long: `docparse sends local documents to the LlamaParse service and prints the
parsed result. PDFs go to the selected backend; plain text, Markdown, DOCX and
HTML files are read locally.

The API key is read from LLAMA_CLOUD_API_KEY, a .env file in the working
directory, the api_key setting of docparse.yaml, or .secrets/llama-cloud-api-key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(dotEnvFile); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("loading %s: %w", dotEnvFile, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Loaded environment from %s\n", dotEnvFile)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docparse.yaml or ~/.config/docparse/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docparse")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docparse"))
		}
	}

	viper.SetEnvPrefix("DOCPARSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("base_url", "LLAMA_CLOUD_BASE_URL", "DOCPARSE_BASE_URL")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
