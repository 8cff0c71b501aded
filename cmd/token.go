package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewGenerateTokenCommand() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:          "generate-token",
		Short:        "Issue a token as if a bin had sorted an item",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			tok, err := rt.issuer.Issue(cmd.Context(), category)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token:    %s\n", tok.ID)
			fmt.Fprintf(out, "category: %s (%d pts)\n", tok.Category, tok.PointValue)
			fmt.Fprintf(out, "expires:  %s\n", tok.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			if qr := rt.display.QRURL(tok.ID); qr != "" {
				fmt.Fprintf(out, "qr:       %s\n", qr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "plastic", "waste category")
	return cmd
}
