package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/parley/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley private-messaging server",
	Long: `Parley is a real-time private-messaging server: it tracks online
users, routes direct messages between them and keeps per-conversation
history for the lifetime of the process.`,
	Run: func(cmd *cobra.Command, args []string) {
		s := server.New()
		s.Start()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
