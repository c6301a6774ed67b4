// Package tree copies whole directory trees for staging, save-back and snapshots.
package tree

import (
	"crypto/rand"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	cp "github.com/otiai10/copy"

	"github.com/hpungsan/saveslot/internal/errors"
)

// tempMarker is part of every in-flight copy's directory name.
const tempMarker = ".saveslot-tmp-"

// Copier replaces one directory tree with a copy of another.
type Copier interface {
	Replace(src, dst string) error
}

// OS is the filesystem-backed Copier.
type OS struct{}

// Replace implements Copier.
func (OS) Replace(src, dst string) error {
	return Replace(src, dst)
}

// Replace makes dst a full copy of the directory tree at src.
//
// The copy is written to a sibling temp directory first. Only after it completed
// is the old dst removed and the temp directory renamed into place, so a failed
// copy leaves dst exactly as it was.
func Replace(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	if src == dst {
		return errors.NewInvalidRequest("replace: source and destination are the same path: " + src)
	}
	if nested(src, dst) || nested(dst, src) {
		return errors.NewInvalidRequest("replace: source and destination are nested: " + src + " -> " + dst)
	}

	info, err := os.Stat(src)
	if err != nil {
		return errors.NewIO("replace", err, src, dst)
	}
	if !info.IsDir() {
		return errors.NewIO("replace", stderrors.New("source is not a directory"), src, dst)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.NewIO("replace", err, src, dst)
	}

	tmp := dst + tempMarker + newSuffix()
	if err := cp.Copy(src, tmp, copyOptions()); err != nil {
		_ = os.RemoveAll(tmp)
		return errors.NewIO("replace", err, src, dst)
	}

	if err := os.RemoveAll(dst); err != nil {
		_ = os.RemoveAll(tmp)
		return errors.NewIO("replace", err, src, dst)
	}

	if err := os.Rename(tmp, dst); err != nil {
		return errors.NewIO("replace", err, tmp, dst)
	}

	return nil
}

// nested reports whether path lies below dir.
func nested(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsTemp reports whether name is an in-flight copy left by Replace.
func IsTemp(name string) bool {
	return strings.Contains(name, tempMarker)
}

func copyOptions() cp.Options {
	return cp.Options{
		// Save trees are plain files; a stray link is copied as a link rather than followed.
		OnSymlink: func(string) cp.SymlinkAction {
			return cp.Shallow
		},
		PreserveTimes: true,
		Sync:          true,
	}
}

func newSuffix() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
