package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var downloadCmd = &cobra.Command{
	Use:   "download <name> [local-path]",
	Short: "Download a file",
	Long: `Download a file through a presigned URL.

The local path defaults to the base name of the object. Use "-" to write
to stdout.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.DownloadOptions{Name: args[0]}
	if len(args) == 2 {
		opts.LocalPath = args[1]
	}

	result, body, err := client.Download(cmd.Context(), opts)
	if err != nil {
		return reportError(err)
	}

	formatter := getFormatter()

	if body != nil {
		defer func() { _ = body.Close() }()
		written, copyErr := io.Copy(os.Stdout, body)
		if copyErr != nil {
			return fmt.Errorf("write stdout: %w", copyErr)
		}
		result.Size = written
		// keep stdout clean for the payload
		return formatter.FormatDownload(os.Stderr, result)
	}

	return formatter.FormatDownload(os.Stdout, result)
}
