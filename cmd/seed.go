package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:          "seed-challenges",
		Short:        "Upsert the challenge catalog",
		Long:         "Upserts challenges by code. Without --file the built-in catalog is used.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				data = b
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			n, err := rt.seedChallenges(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d challenge(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML challenge catalog")
	return cmd
}
