package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var (
	uploadContentType string
	uploadRecursive   bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [name]",
	Short: "Upload a file",
	Long: `Upload a file to the gateway's bucket.

The object name defaults to the cleaned local path. With --recursive every
file under the directory is uploaded and [name] is used as a prefix.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadContentType, "content-type", "t", "", "content type (default: detected from extension)")
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload a directory")
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: uploadContentType,
		Recursive:   uploadRecursive,
	}
	switch {
	case len(args) == 2:
		opts.Name = args[1]
	case !uploadRecursive:
		opts.Name = clientcli.NormalizeLocalToRemotePath(args[0])
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return reportError(err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return errors.New("some uploads failed")
	}
	return nil
}
