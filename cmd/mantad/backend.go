package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/config"
	"github.com/sagarc03/manta/database"
	"github.com/sagarc03/manta/filesystem"
	"github.com/sagarc03/manta/service"
)

// openService connects the metadata database and the storage directory and
// returns the namespace service on top of them. The storage directory is
// created when create is set; otherwise it must exist.
func openService(ctx context.Context, cfg *config.Config, create bool) (*service.Service, func(), error) {
	storagePath := cfg.Storage.Path
	if create {
		if err := os.MkdirAll(storagePath, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}
	} else if _, err := os.Stat(storagePath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("storage directory does not exist: %s", storagePath)
	}

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	slog.Info("connected to database", "type", cfg.Database.Type)

	root, err := os.OpenRoot(storagePath)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	storage := filesystem.NewFileStorage(root, slog.Default())
	svc := service.New(repo, storage, service.Config{
		CleanupTimeout: time.Duration(cfg.Service.CleanupTimeout) * time.Second,
		Logger:         slog.Default(),
	})

	closeFn := func() {
		_ = root.Close()
		closeDB()
	}
	return svc, closeFn, nil
}

// storagePath resolves p against the account's storage root. Absolute
// paths are taken as they are.
func storagePath(account, p string) (string, error) {
	if strings.HasPrefix(p, "/") {
		return service.CleanPath(p)
	}
	if account == "" {
		return "", fmt.Errorf("relative path %q needs --account", p)
	}
	return service.CleanPath(path.Join(manta.StoragePrefix(account), p))
}

// mkdirAll creates dir and any missing parents, like mkdir -p.
func mkdirAll(ctx context.Context, svc *service.Service, dir string) error {
	if dir == "" || service.IsStorageRoot(dir) {
		return nil
	}
	parent, _ := service.SplitPath(dir)
	if err := mkdirAll(ctx, svc, parent); err != nil {
		return err
	}
	_, _, err := svc.PutDirectory(ctx, dir)
	return err
}
