package main

import (
	"os"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <remote-path>",
	Short: "Show an object's metadata",
	Long: `Show an object's metadata without downloading it: content type, size,
ETag, Content-MD5, modification time and user metadata.

Examples:
  manta-cli info docs/file.txt
  manta-cli info --json docs/file.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Info(cmd.Context(), args[0])
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatInfo(os.Stdout, result)
}
