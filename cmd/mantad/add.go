package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/config"
	"github.com/sagarc03/manta/service"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local files into an account's storage",
	Long: `Import files from external paths into an account's namespace.

Files are stored through the same path as uploads over HTTP, so their
metadata, ETag and Content-MD5 are recorded. Missing directories on the
destination path are created.

Examples:
  # Add a single file to /alice/stor/file.txt
  mantad add --account alice /path/to/file.txt

  # Add under a destination directory
  mantad add --account alice --dest images /path/to/photo.jpg

  # Add a directory recursively
  mantad add --account alice -r /path/to/assets

  # Skip existing objects
  mantad add --account alice --no-clobber /path/to/file.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addAccount   string
	addDest      string
	addRecursive bool
	addNoClobber bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVarP(&addAccount, "account", "a", "", "account whose namespace receives the files")
	addCmd.Flags().StringVarP(&addDest, "dest", "d", "", "destination directory, relative to the account's storage root or absolute")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addNoClobber, "no-clobber", "n", false, "skip existing objects instead of overwriting")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	_ = addCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(addCmd)
}

// fileEntry represents a file to be added with its source and destination paths.
type fileEntry struct {
	sourcePath string
	destPath   string
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	destDir, err := storagePath(addAccount, addDest)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	svc, closeBackend, err := openService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeBackend()

	// Collect files from all arguments
	var files []fileEntry
	for _, arg := range args {
		entries, collectErr := collectFiles(arg, addRecursive, destDir)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, entries...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	added := 0
	skipped := 0

	for _, entry := range files {
		if addNoClobber {
			if _, statErr := svc.Stat(ctx, entry.destPath); statErr == nil {
				skipped++
				if !addQuiet {
					slog.Info("skipped (exists)", "path", entry.destPath)
				}
				continue
			}
		}

		parent, _ := service.SplitPath(entry.destPath)
		if err := mkdirAll(ctx, svc, parent); err != nil {
			return fmt.Errorf("add %s: %w", entry.destPath, err)
		}

		f, openErr := os.Open(entry.sourcePath)
		if openErr != nil {
			return fmt.Errorf("open %s: %w", entry.sourcePath, openErr)
		}

		contentType := detectContentType(entry.sourcePath)

		obj := service.PutObject{
			Path:        entry.destPath,
			ContentType: contentType,
		}

		node, putErr := svc.PutObject(ctx, obj, f)
		_ = f.Close()

		if putErr != nil {
			return fmt.Errorf("add %s: %w", entry.destPath, putErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "path", node.Path, "content_type", contentType, "size", node.Size)
		}
	}

	slog.Info("add complete", "added", added, "skipped", skipped)
	return nil
}

// collectFiles gathers files from a local path, optionally recursively, and
// maps them under destDir.
func collectFiles(localPath string, recursive bool, destDir string) ([]fileEntry, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		destPath := path.Join(destDir, filepath.Base(localPath))
		return []fileEntry{{sourcePath: localPath, destPath: destPath}}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", localPath)
	}

	var entries []fileEntry
	walkErr := filepath.WalkDir(localPath, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(localPath, walkPath)
		if relErr != nil {
			return relErr
		}

		entries = append(entries, fileEntry{
			sourcePath: walkPath,
			destPath:   path.Join(destDir, filepath.ToSlash(relPath)),
		})
		return nil
	})

	if walkErr != nil {
		return nil, walkErr
	}

	return entries, nil
}

// detectContentType determines the MIME type from a file's extension.
func detectContentType(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return "application/octet-stream"
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
