package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the reward service CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recycle-reward",
		Short: "Recycling reward service",
		Long:  "Issues one-time tokens for sorted waste, credits points on claim and tracks challenges.",
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewSeedCommand())
	cmd.AddCommand(NewGenerateTokenCommand())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}
