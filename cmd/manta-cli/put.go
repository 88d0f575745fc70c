package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/clientcli"
)

var (
	putRecursive   bool
	putParents     bool
	putContentType string
	putMetadata    []string
)

var putCmd = &cobra.Command{
	Use:     "put <local-path> [remote-path]",
	Aliases: []string{"upload"},
	Short:   "Upload files",
	Long: `Upload a file, or a directory tree with -r. A remote path ending in
"/" keeps the local file name. Every upload carries its MD5, so the
service rejects a corrupted transfer.

Examples:
  manta-cli put ./file.txt docs/file.txt
  manta-cli put -p ./file.txt docs/2024/
  manta-cli put -r ./images media/images
  manta-cli put -m owner=alice -t application/json ./data docs/config.json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func init() {
	putCmd.Flags().BoolVarP(&putRecursive, "recursive", "r", false, "upload directory recursively")
	putCmd.Flags().BoolVarP(&putParents, "parents", "p", false, "create the container and missing directories")
	putCmd.Flags().StringVarP(&putContentType, "content-type", "t", "", "override content-type")
	putCmd.Flags().StringArrayVarP(&putMetadata, "metadata", "m", nil, "user metadata as key=value (repeatable)")
}

func runPut(cmd *cobra.Command, args []string) error {
	metadata, err := parseMetadata(putMetadata)
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.UploadOptions{
		LocalPath:   args[0],
		ContentType: putContentType,
		Recursive:   putRecursive,
		Parents:     putParents,
		Metadata:    metadata,
	}
	if len(args) > 1 {
		opts.RemotePath = args[1]
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasUploadErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q: want key=value", pair)
		}
		m[k] = v
	}
	return m, nil
}
