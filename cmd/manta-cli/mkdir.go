package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/clientcli"
)

var mkdirParents bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path> [path...]",
	Short: "Create containers or directories",
	Long: `Create a container (a path with one segment) or a directory inside one.
Creating an existing directory is not an error.

Examples:
  manta-cli mkdir photos
  manta-cli mkdir -p photos/2024/summer`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMkdir,
}

var rmdirCmd = &cobra.Command{
	Use:   "rmdir <path> [path...]",
	Short: "Delete empty containers or directories",
	Long: `Delete an empty container or directory. Deleting a directory that
still holds entries fails; a missing one is not an error.

Examples:
  manta-cli rmdir photos/2024/summer
  manta-cli rmdir photos`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRmdir,
}

func init() {
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "create the container and missing parent directories")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	for _, p := range args {
		if err := client.Mkdir(cmd.Context(), clientcli.MkdirOptions{Path: p, Parents: mkdirParents}); err != nil {
			return handleError(os.Stderr, err)
		}
		if err := formatter.FormatDone(os.Stdout, "Created", p); err != nil {
			return err
		}
	}
	return nil
}

func runRmdir(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	formatter := getFormatter()
	for _, p := range args {
		if err := client.Rmdir(cmd.Context(), p); err != nil {
			return handleError(os.Stderr, err)
		}
		if err := formatter.FormatDone(os.Stdout, "Removed", p); err != nil {
			return err
		}
	}
	return nil
}
