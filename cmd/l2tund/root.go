package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	envPath    string
	dropUID    int
	dropGID    int
)

var rootCmd = &cobra.Command{
	Use:   "l2tund",
	Short: "Ethernet-over-UDP tunnel daemon",
	Long:  "l2tund tunnels Ethernet frames between two hosts over a single authenticated UDP flow.",
	// Silence cobra's own usage dump and error print; Execute prints the
	// returned error itself.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/l2tund/l2tund.yaml", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "path to an env-file overlay (defaults to the process environment)")
	rootCmd.PersistentFlags().IntVar(&dropUID, "drop-uid", 0, "uid to drop privileges to after opening the TAP device and socket (0 = don't drop)")
	rootCmd.PersistentFlags().IntVar(&dropGID, "drop-gid", 0, "gid to drop privileges to alongside --drop-uid")

	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(clientCmd())
	rootCmd.AddCommand(versionCmd())
}

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run as the tunnel server (binds and waits for a client HELLO)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDaemon("server")
		},
	}
}

func clientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client",
		Short: "Run as the tunnel client (dials the configured peer)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDaemon("client")
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print l2tund's version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println("l2tund", version)
		},
	}
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "l2tund:", err)
		os.Exit(1)
	}
}
