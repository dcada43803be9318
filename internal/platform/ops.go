package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/notebox/pkg/adapters/fs"
	"github.com/aretw0/notebox/pkg/adapters/memory"
	"github.com/aretw0/notebox/pkg/adapters/sqlite"
	"github.com/aretw0/notebox/pkg/core"
)

// DatabaseFileName is used by the sqlite adapter when the uri is a directory.
const DatabaseFileName = "notebox.db"

// Init opens the storage selected by the options and runs its initialization.
// The uri is adapter-specific: a directory for "fs", a directory or database
// file for "sqlite", ignored for "memory".
func Init(uri string, opts ...Option) (core.Storage, error) {
	return initStorage(context.Background(), uri, parseOptions(opts))
}

func initStorage(ctx context.Context, uri string, o *options) (core.Storage, error) {
	if o.storage != nil {
		return o.storage, nil
	}

	var (
		storage core.Storage
		err     error
	)
	switch o.adapter {
	case "fs", "":
		storage, err = initFS(uri, o)
	case "sqlite":
		storage, err = initSQLite(uri, o)
	case "memory":
		storage = memory.New()
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if init, ok := storage.(core.Initializer); ok && !o.bool("read_only") {
		if err := init.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	return storage, nil
}

// resolvePath applies the dev sandbox rules shared by the file based adapters.
func resolvePath(path string, o *options) (string, bool) {
	readOnly := o.bool("read_only")
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	bypassSafety := readOnly || !devSafety

	useTemp := o.bool("temp_dir") || (IsDevRun() && !bypassSafety)
	resolved := ResolveStorePath(path, useTemp)

	if o.logger != nil {
		switch {
		case IsDevRun() && bypassSafety && readOnly:
			o.logger.Debug("running in READ-ONLY mode (bypassing dev sandbox)", "path", resolved)
		case IsDevRun() && bypassSafety:
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
		case useTemp && resolved != filepath.Clean(path):
			o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
		}
	}
	return resolved, useTemp
}

// initFS builds the filesystem adapter.
func initFS(path string, o *options) (core.Storage, error) {
	autoInit := o.bool("auto_init")
	mustExist := o.bool("must_exist")
	readOnly := o.bool("read_only")
	systemDir, _ := o.config["system_dir"].(string)
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	resolvedPath, useTemp := resolvePath(path, o)

	versioning, explicit := o.config["versioning"].(bool)
	if !explicit {
		// Keep whatever the directory already has. A fresh auto-initialized
		// store starts without git: note data changes constantly.
		_, err := os.Stat(filepath.Join(resolvedPath, ".git"))
		versioning = err == nil && fs.IsGitInstalled()
		if o.logger != nil {
			o.logger.Debug("auto-detected versioning", "enabled", versioning)
		}
	}

	return fs.NewRepository(fs.Config{
		Path:         resolvedPath,
		AutoInit:     autoInit,
		Versioning:   versioning,
		MustExist:    mustExist || (!autoInit && !useTemp),
		ReadOnly:     readOnly,
		SystemDir:    systemDir,
		Logger:       o.logger,
		ErrorHandler: errorHandler,
	}), nil
}

// initSQLite opens the sqlite adapter. ":memory:" is passed through as is.
func initSQLite(uri string, o *options) (core.Storage, error) {
	readOnly := o.bool("read_only")

	dsn := uri
	if uri != ":memory:" {
		resolved, useTemp := resolvePath(uri, o)
		if !strings.HasSuffix(resolved, ".db") && !strings.HasSuffix(resolved, ".sqlite") {
			resolved = filepath.Join(resolved, DatabaseFileName)
		}
		dir := filepath.Dir(resolved)
		if _, err := os.Stat(dir); err != nil {
			if (!o.bool("auto_init") && !useTemp) || readOnly {
				return nil, fmt.Errorf("store directory %s: %w", dir, err)
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		dsn = resolved
	}

	return sqlite.Open(dsn, sqlite.Config{
		ReadOnly: readOnly,
		Logger:   o.logger,
		Clock:    o.clock(),
	})
}
