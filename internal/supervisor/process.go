package supervisor

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// processTable lists processes through gopsutil.
type processTable struct{}

// NewProcessLister returns a ProcessLister backed by the OS process table.
func NewProcessLister() ProcessLister {
	return processTable{}
}

// Running implements ProcessLister. Processes whose executable cannot be read
// (permissions, already exited) are skipped.
func (processTable) Running(ctx context.Context, exe string) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}

	want := candidates(exe)
	for _, p := range procs {
		path, err := p.ExeWithContext(ctx)
		if err != nil || path == "" {
			continue
		}
		for _, w := range want {
			if samePath(path, w) {
				return true, nil
			}
		}
	}
	return false, nil
}

// candidates returns exe as given plus its symlink-resolved form.
func candidates(exe string) []string {
	want := []string{filepath.Clean(exe)}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil && resolved != want[0] {
		want = append(want, resolved)
	}
	return want
}

func samePath(a, b string) bool {
	a = filepath.Clean(a)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
