package main

import (
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show every file in the gateway's bucket",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		result, err := client.List(cmd.Context())
		if err != nil {
			return reportError(err)
		}
		return getFormatter().FormatList(os.Stdout, result)
	},
}
