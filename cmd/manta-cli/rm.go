package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/clientcli"
)

var rmCmd = &cobra.Command{
	Use:     "rm <remote-path> [remote-path...]",
	Aliases: []string{"delete"},
	Short:   "Delete objects",
	Long: `Delete one or more objects. A missing object is not an error.
Use rmdir for containers and directories.

Examples:
  manta-cli rm docs/file.txt
  manta-cli rm old/a.txt old/b.txt old/c.txt
  manta-cli rm -q temp/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{Paths: args})
	if err != nil {
		return handleError(os.Stderr, err)
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		return &exitError{code: 1}
	}
	return nil
}
