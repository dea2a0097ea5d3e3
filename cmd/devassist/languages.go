package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/agusespa/devassist/internal/client"
	"github.com/agusespa/devassist/internal/types"
	"github.com/spf13/cobra"
)

func newLanguagesCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the languages offered for analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := types.Languages()
			if serverURL != "" {
				remote, err := client.New(serverURL, nil).Languages(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to fetch languages: %w", err)
				}
				langs = remote
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, lang := range langs {
				fmt.Fprintf(w, "%s\t%s\n", lang.ID, lang.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "", "Fetch the list from this devassist server")
	return cmd
}
