package template

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
)

// mergeFS implements fs.FS over an ordered set of filesystems.
type mergeFS struct {
	// A cache for minimizing ascertaining which filesystem holds the template.
	cache map[string]fs.FS

	// Filesystems in the order they are searched.
	dirs []fs.FS

	sync.RWMutex
}

func newMergeFS(dirs ...fs.FS) *mergeFS {
	filtered := make([]fs.FS, 0, len(dirs))
	for _, d := range dirs {
		if d != nil {
			filtered = append(filtered, d)
		}
	}

	return &mergeFS{cache: make(map[string]fs.FS), dirs: filtered}
}

// Open opens the file matching the name using the following strategy:
//   - check the cache
//   - check each filesystem in order
//
// Whenever a file is found and is not present in the cache, it is added.
// Nothing removes references from the cache.
// If a file is removed from an OS-backed filesystem during runtime,
// then a reference to it from the cache returns the same error (fs.ErrNotExist)
// as if the cache did not have that reference.
func (mfs *mergeFS) Open(name string) (fs.File, error) {
	mfs.RLock()
	dir, ok := mfs.cache[name]
	mfs.RUnlock()
	if ok {
		return dir.Open(name)
	}

	for _, dir := range mfs.dirs {
		file, err := dir.Open(name)
		if err == nil {
			mfs.Lock()
			mfs.cache[name] = dir
			mfs.Unlock()

			return file, nil
		}

		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			continue
		}

		return nil, fmt.Errorf("unable to open template: %w", err)
	}

	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
