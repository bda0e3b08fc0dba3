package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "hostpanel",
	Short: "Lightweight host monitoring panel",
	Long: `hostpanel serves a live dashboard of this machine's CPU, memory, disks,
temperature, network, processes and services.

Examples:
  hostpanel serve
  hostpanel serve --config /etc/hostpanel/config.toml
  hostpanel snapshot --output yaml
  hostpanel user add admin`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to the config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
