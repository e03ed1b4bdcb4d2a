// Command catecismo serves and queries the catechism search index.
//
//	catecismo serve            # HTTP API (see /swagger when SWAGGER_ENABLED)
//	catecismo index            # build once and print the report
//	catecismo search <term>    # build once and print the results
//
// Configuration comes from the environment; a .env file is loaded first when
// present.
//
// @title       Catecismo Search API
// @version     1.0
// @description Accent-insensitive full-text search and paragraph navigation over the Catechism documents.
// @BasePath    /api/v1
package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var envFile string

var rootCmd = &cobra.Command{
	Use:          "catecismo",
	Short:        "Full-text search over the Catechism documents",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
}

// loadEnv loads path into the environment without overriding variables that
// are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
