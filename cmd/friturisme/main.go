package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/friturisme/friturisme/pkg/prettylog"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "friturisme",
	Short: "Friturisme — ge kent uw frituur, maar kent ge alle frituren?",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
}

func main() {
	godotenv.Load()

	if os.Getenv("PRETTY_LOGS") != "false" {
		logger := slog.New(prettylog.NewHandler(slog.LevelDebug))
		slog.SetDefault(logger)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
