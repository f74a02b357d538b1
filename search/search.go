// Package search recursively discovers granule files under a URI
// (local path or object store) through the TileDB VFS, for l2bin's
// batch/trawl CLI mode.
package search

import (
	"path/filepath"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// trawl recursively matches basenames against pattern under uri. The
// basename is only matched with the pattern, e.g. ("*.L2",
// "A2007050123000.L2_LAC_OC").
func trawl(vfs *tiledb.VFS, pattern string, uri string, items []string) ([]string, error) {
	dirs, files, err := vfs.List(uri)
	if err != nil {
		return items, err
	}

	for _, file := range files {
		match, err := filepath.Match(pattern, filepath.Base(file))
		if err != nil {
			return items, err
		}
		if match {
			items = append(items, file)
		}
	}

	for _, dir := range dirs {
		items, err = trawl(vfs, pattern, dir, items)
		if err != nil {
			return items, err
		}
	}

	return items, nil
}

// FindGranules recursively searches for files matching pattern under
// uri (default "*.L2" if pattern is empty), using the TileDB Go
// bindings so the same code searches local filesystems or object
// stores such as AWS-S3 uniformly. A TileDB config is required for
// object stores with permission constraints.
func FindGranules(uri, pattern, configURI string) ([]string, error) {
	var (
		config *tiledb.Config
		err    error
	)

	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return nil, err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return nil, err
	}
	defer ctx.Free()

	vfs, err := tiledb.NewVFS(ctx, config)
	if err != nil {
		return nil, err
	}
	defer vfs.Free()

	if pattern == "" {
		pattern = "*.L2"
	}

	return trawl(vfs, pattern, uri, make([]string, 0))
}
