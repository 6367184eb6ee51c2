package main

import (
	"os"

	"github.com/spf13/cobra"
)

var urlCmd = &cobra.Command{
	Use:   "url <name>",
	Short: "Print a download URL for a file",
	Long: `Ask the gateway for a presigned download URL. The URL stops working
after the gateway's presign expiry (10 minutes unless configured otherwise).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := getClient()
		if err != nil {
			return err
		}

		result, err := client.PresignURL(cmd.Context(), args[0])
		if err != nil {
			return reportError(err)
		}
		return getFormatter().FormatURL(os.Stdout, result)
	},
}
