// Package profile lists, validates and creates saved profiles.
package profile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/tree"
)

// Reserved is the selection sentinel meaning "run with the active slot as is".
// It can never be used as a profile name, in any letter case.
const Reserved = "NoProfile"

// Profile is a named save history persisted under the saved-profiles root.
type Profile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// List returns the names of the directories directly under root.
// A missing root yields an empty list, not an error. Order is the directory
// enumeration order; callers that display profiles sort them.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.NewIO("list profiles", err, root)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !isDir(root, e) {
			continue
		}
		if tree.IsTemp(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// isDir reports whether e is a directory, following a symlinked entry.
func isDir(root string, e fs.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, e.Name()))
	return err == nil && info.IsDir()
}

// IsReserved reports whether name is the sentinel, ignoring case.
func IsReserved(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), Reserved)
}

// ValidateName checks that name can identify a profile directory.
// It never touches the filesystem.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewInvalidSelection(name, "name must not be empty")
	}
	if IsReserved(name) {
		return errors.NewInvalidSelection(name, fmt.Sprintf("%q is reserved", Reserved))
	}
	if name != strings.TrimSpace(name) {
		return errors.NewInvalidSelection(name, "name must not start or end with whitespace")
	}
	if name == "." || name == ".." {
		return errors.NewInvalidSelection(name, "name must not be a relative path element")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.NewInvalidSelection(name, "name must not contain path separators")
	}
	if strings.ContainsRune(name, 0) {
		return errors.NewInvalidSelection(name, "name must not contain NUL")
	}
	if tree.IsTemp(name) {
		return errors.NewInvalidSelection(name, "name looks like an in-flight copy")
	}
	return nil
}

// Exists reports whether root/name is a directory.
func Exists(root, name string) (bool, error) {
	info, err := os.Stat(filepath.Join(root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewIO("stat profile", err, filepath.Join(root, name))
	}
	return info.IsDir(), nil
}

// Create copies the directory tree at src into a new profile root/name.
// The name is validated before anything on disk is read or written.
func Create(copier tree.Copier, root, name, src string) (*Profile, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	// Any entry under the name blocks creation, not only a directory
	dst := filepath.Join(root, name)
	if _, err := os.Lstat(dst); err == nil {
		return nil, errors.NewNameAlreadyExists(name)
	} else if !os.IsNotExist(err) {
		return nil, errors.NewIO("stat profile", err, dst)
	}

	if err := copier.Replace(src, dst); err != nil {
		return nil, err
	}

	return &Profile{Name: name, Path: dst}, nil
}
