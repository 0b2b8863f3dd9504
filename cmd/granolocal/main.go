// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the granolocal CLI, which exports
// Granola.ai meetings and shared notes to local Markdown files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the granolocal CLI.
var rootCmd = &cobra.Command{
	Use:   "granolocal",
	Short: "Export Granola.ai meetings to local Markdown files",
	Long: `granolocal reads the local Granola cache and exports each meeting as a
Markdown file organized by date: output/YYYY/YYYY-MM/YYYY-MM-DD - Title.md.

Missing transcripts can be backfilled from the Granola API using the
locally stored credentials, and publicly shared notes can be downloaded
from their URLs into output/shared/.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./granolocal.yaml or ~/.config/granolocal/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("granolocal")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "granolocal"))
		}
	}

	viper.SetDefault("cache_path", defaultGranolaFile("cache-v3.json"))
	viper.SetDefault("auth_path", defaultGranolaFile("supabase.json"))
	viper.SetDefault("output_dir", "granola-backup")
	viper.SetDefault("user_agent", "granolocal/1.0")

	viper.SetEnvPrefix("GRANOLOCAL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// defaultGranolaFile locates a file under the Granola app-support
// directory on macOS, where the app keeps its cache and credentials.
func defaultGranolaFile(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, "Library", "Application Support", "Granola", name)
}

// flagOr returns the flag's value when set, otherwise the viper config value.
func flagOr(cmd *cobra.Command, flag, configKey string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viper.GetString(configKey)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
