package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/clientcli"
)

var lsRecursive bool

var lsCmd = &cobra.Command{
	Use:     "ls [path]",
	Aliases: []string{"list"},
	Short:   "List containers, directories and objects",
	Long: `List the entries below a path. Without a path the account's
containers are listed. A missing path lists nothing.

Examples:
  manta-cli ls
  manta-cli ls photos
  manta-cli ls -r photos/2024`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVarP(&lsRecursive, "recursive", "r", false, "descend into directories")
}

func runLs(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	opts := clientcli.ListOptions{Recursive: lsRecursive}
	if len(args) > 0 {
		opts.Path = args[0]
	}

	result, err := client.List(cmd.Context(), opts)
	if err != nil {
		return handleError(os.Stderr, err)
	}

	return getFormatter().FormatList(os.Stdout, result)
}
