package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/servemd/core/cmd/servemd/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "servemd",
		Short: "A basic HTTP file server",
		Long:  `servemd serves a directory tree over HTTP for local development and ad-hoc file sharing, with rendered markdown and generated directory listings.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
