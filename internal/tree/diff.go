package tree

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hpungsan/saveslot/internal/errors"
)

// Change kinds reported by Diff.
const (
	OnlyInA  = "only_in_a"
	OnlyInB  = "only_in_b"
	Modified = "modified"
	TypeDiff = "type"
)

// Difference is one path that differs between two trees.
type Difference struct {
	Path string `json:"path"` // slash-separated, relative to the tree root
	Kind string `json:"kind"`
}

// Diff compares two directory trees structurally and by file content.
// Results are sorted by path. Timestamps and permissions are ignored.
func Diff(a, b string) ([]Difference, error) {
	left, err := index(a)
	if err != nil {
		return nil, err
	}
	right, err := index(b)
	if err != nil {
		return nil, err
	}

	var diffs []Difference
	for rel, lm := range left {
		rm, ok := right[rel]
		if !ok {
			diffs = append(diffs, Difference{Path: rel, Kind: OnlyInA})
			continue
		}
		if lm.Type() != rm.Type() {
			diffs = append(diffs, Difference{Path: rel, Kind: TypeDiff})
			continue
		}
		if lm.IsRegular() {
			same, err := sameContent(filepath.Join(a, rel), filepath.Join(b, rel))
			if err != nil {
				return nil, err
			}
			if !same {
				diffs = append(diffs, Difference{Path: rel, Kind: Modified})
			}
		}
	}
	for rel := range right {
		if _, ok := left[rel]; !ok {
			diffs = append(diffs, Difference{Path: rel, Kind: OnlyInB})
		}
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs, nil
}

// Equal reports whether two trees have the same structure and file contents.
func Equal(a, b string) (bool, error) {
	diffs, err := Diff(a, b)
	if err != nil {
		return false, err
	}
	return len(diffs) == 0, nil
}

func index(root string) (map[string]fs.FileMode, error) {
	entries := make(map[string]fs.FileMode)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries[filepath.ToSlash(rel)] = d.Type()
		return nil
	})
	if err != nil {
		return nil, errors.NewIO("compare", err, root)
	}
	return entries, nil
}

func sameContent(a, b string) (bool, error) {
	ab, err := os.ReadFile(a)
	if err != nil {
		return false, errors.NewIO("compare", err, a)
	}
	bb, err := os.ReadFile(b)
	if err != nil {
		return false, errors.NewIO("compare", err, b)
	}
	return bytes.Equal(ab, bb), nil
}
