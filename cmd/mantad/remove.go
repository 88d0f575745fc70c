package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/config"
	"github.com/sagarc03/manta/service"
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <path1> [path2] ...",
	Short: "Remove objects and directories from storage",
	Long: `Delete objects and directories from the namespace.

Paths are relative to the account's storage root unless they start with
"/". Directories must be empty unless --recursive is given.

Examples:
  # Remove a single object
  mantad remove --account alice c1/file.txt

  # Remove a directory and everything below it
  mantad remove -r /alice/stor/c1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var (
	removeAccount   string
	removeRecursive bool
	removeQuiet     bool
)

func init() {
	removeCmd.Flags().StringVarP(&removeAccount, "account", "a", "", "account for relative paths")
	removeCmd.Flags().BoolVarP(&removeRecursive, "recursive", "r", false, "remove directories and their contents")
	removeCmd.Flags().BoolVarP(&removeQuiet, "quiet", "q", false, "suppress per-entry output")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	svc, closeBackend, err := openService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeBackend()

	removed := 0
	notFound := 0

	for _, arg := range args {
		p, pathErr := storagePath(removeAccount, arg)
		if pathErr != nil {
			return fmt.Errorf("remove %s: %w", arg, pathErr)
		}

		count, removeErr := removeTree(ctx, svc, p, removeRecursive)
		if errors.Is(removeErr, service.ErrNotFound) {
			notFound++
			if !removeQuiet {
				slog.Warn("not found", "path", p)
			}
			continue
		}
		if removeErr != nil {
			return fmt.Errorf("remove %s: %w", p, removeErr)
		}
		removed += count
	}

	slog.Info("remove complete", "removed", removed, "not_found", notFound)
	return nil
}

// removeTree deletes p. With recursive set, a directory's children are
// deleted first, depth first. It returns the number of entries removed.
func removeTree(ctx context.Context, svc *service.Service, p string, recursive bool) (int, error) {
	removed := 0

	if recursive {
		node, err := svc.Stat(ctx, p)
		if err != nil {
			return 0, err
		}

		if node.IsDirectory() {
			children, err := svc.List(ctx, service.ListQuery{Parent: p})
			if err != nil {
				return 0, fmt.Errorf("list %s: %w", p, err)
			}
			for _, child := range children {
				n, err := removeTree(ctx, svc, child.Path, true)
				if err != nil {
					return removed, err
				}
				removed += n
			}
			// The storage root itself cannot be deleted.
			if service.IsStorageRoot(p) {
				return removed, nil
			}
		}
	}

	if err := svc.Delete(ctx, p); err != nil {
		return removed, err
	}
	if !removeQuiet {
		slog.Info("removed", "path", p)
	}
	return removed + 1, nil
}
