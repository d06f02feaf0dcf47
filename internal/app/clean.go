package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/matrix/internal/core/domain"
	"go.trai.ch/zerr"
)

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	File  string
	Cache bool
	Logs  bool
	// All removes the whole state directory, history and kept hosts included.
	All bool
}

// Clean removes runner state based on the provided options.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	root, err := a.stateRoot(options.File)
	if err != nil {
		return err
	}

	var errs error

	// Helper to remove a directory and log the action
	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)), "path", path))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.All {
		remove(domain.DefaultStatePath(root), "runner state")
		return errs
	}
	if options.Cache {
		remove(domain.DefaultCachePath(root), "cache")
	}
	if options.Logs {
		remove(domain.DefaultLogsPath(root), "job logs")
	}
	return errs
}

// stateRoot returns the directory holding the state directory: the
// directory of the workflow file, or the working directory when there is none.
func (a *App) stateRoot(file string) (string, error) {
	path, err := a.resolveWorkflowPath(file)
	if err == nil {
		return filepath.Dir(path), nil
	}
	if file != "" || !errors.Is(err, domain.ErrWorkflowNotFound) {
		return "", err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get working directory")
	}
	return cwd, nil
}
