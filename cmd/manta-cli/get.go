package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/clientcli"
)

var (
	getOutput string
	getStdout bool
)

var getCmd = &cobra.Command{
	Use:     "get <remote-path> [local-path]",
	Aliases: []string{"download"},
	Short:   "Download an object",
	Long: `Download an object. Without a local path the object's base name is
used. Downloads to a file are checked against the object's Content-MD5.

Examples:
  manta-cli get docs/file.txt
  manta-cli get docs/file.txt ./local-file.txt
  manta-cli get --stdout docs/config.json | jq .
  manta-cli get -o ./output.txt docs/file.txt`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output file path")
	getCmd.Flags().BoolVar(&getStdout, "stdout", false, "write to stdout")
}

func runGet(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if getOutput != "" {
		localPath = getOutput
	}
	if getStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		RemotePath: args[0],
		LocalPath:  localPath,
	})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	formatter := getFormatter()
	if reader != nil {
		defer func() { _ = reader.Close() }()
		if _, err := io.Copy(os.Stdout, reader); err != nil {
			return err
		}
		// Metadata goes to stderr so stdout holds only the content.
		if jsonOutput {
			return formatter.FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return formatter.FormatDownload(os.Stdout, result)
}
