// Package snapshot writes timestamped copies of the active slot: crash
// archive entries and pre-stage backups.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/tree"
)

const (
	// CrashPrefix names crash archive entries.
	CrashPrefix = "crash"

	// TimeFormat is the timestamp layout used in snapshot names.
	TimeFormat = "20060102_150405"

	maxSuffix = 999
)

// Entry is one crash archive directory.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// NextPath returns the first unused path root/prefix_TIMESTAMP, appending
// _002 through _999 when snapshots land in the same second.
func NextPath(root, prefix string, now time.Time) (string, error) {
	base := filepath.Join(root, prefix+"_"+now.Format(TimeFormat))

	for n := 1; n <= maxSuffix; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s_%03d", base, n)
		}
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", errors.NewIO("snapshot name", err, candidate)
		}
	}
	return "", errors.NewIO("snapshot name", fmt.Errorf("more than %d snapshots in one second", maxSuffix), base)
}

// Archiver copies the active slot into fresh timestamped directories.
type Archiver struct {
	Copier tree.Copier
	Now    func() time.Time
}

// NewArchiver returns an Archiver using the filesystem copier and wall clock.
func NewArchiver() *Archiver {
	return &Archiver{Copier: tree.OS{}, Now: time.Now}
}

// Archive copies active into a new crash entry under crashRoot and returns its path.
func (a *Archiver) Archive(active, crashRoot string) (string, error) {
	if err := os.MkdirAll(crashRoot, 0755); err != nil {
		return "", errors.NewIO("archive", err, crashRoot)
	}
	return a.snapshot(active, crashRoot, CrashPrefix)
}

// Backup copies active next to itself as <name>_backup_TIMESTAMP and returns its path.
func (a *Archiver) Backup(active string) (string, error) {
	active = filepath.Clean(active)
	return a.snapshot(active, filepath.Dir(active), filepath.Base(active)+"_backup")
}

func (a *Archiver) snapshot(active, root, prefix string) (string, error) {
	dst, err := NextPath(root, prefix, a.now())
	if err != nil {
		return "", err
	}
	if err := a.Copier.Replace(active, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (a *Archiver) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// List returns the crash entries under crashRoot, oldest first.
// A missing root yields an empty list.
func List(crashRoot string) ([]Entry, error) {
	dirents, err := os.ReadDir(crashRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, errors.NewIO("list crashes", err, crashRoot)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		if !d.IsDir() || !strings.HasPrefix(d.Name(), CrashPrefix+"_") || tree.IsTemp(d.Name()) {
			continue
		}
		entries = append(entries, Entry{Name: d.Name(), Path: filepath.Join(crashRoot, d.Name())})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
