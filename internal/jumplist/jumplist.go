// Package jumplist persists an ordered list of directories that can be
// jumped to by index.
package jumplist

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/undrift/tuxmux/internal/config"
)

const (
	fileName      = "jumplist"
	lockRetryWait = 25 * time.Millisecond
)

// Jumplist is an ordered set of absolute paths.
type Jumplist struct {
	path    string
	entries []string
}

// Path returns the jumplist file inside the data directory.
func Path() (string, error) {
	dir, err := config.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the jumplist at path. A missing file is an empty list and
// entries that no longer exist on disk are dropped.
func Load(path string) (*Jumplist, error) {
	j := &Jumplist{path: path, entries: []string{}}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read jumplist: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if _, err := os.Stat(line); err != nil {
			continue
		}
		j.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jumplist: %w", err)
	}
	return j, nil
}

// File returns the path the list is written to.
func (j *Jumplist) File() string {
	return j.path
}

// Add appends p unless it is already present.
func (j *Jumplist) Add(p string) {
	if !slices.Contains(j.entries, p) {
		j.entries = append(j.entries, p)
	}
}

// Get returns the entry at the 0-based index i.
func (j *Jumplist) Get(i int) (string, bool) {
	if i < 0 || i >= len(j.entries) {
		return "", false
	}
	return j.entries[i], true
}

// Entries returns a copy of the list.
func (j *Jumplist) Entries() []string {
	return slices.Clone(j.entries)
}

// Len returns the number of entries.
func (j *Jumplist) Len() int {
	return len(j.entries)
}

// Write replaces the file with one entry per line, creating the parent
// directory when needed.
func (j *Jumplist) Write() error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	var b strings.Builder
	for _, e := range j.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(j.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write jumplist: %w", err)
	}
	return nil
}

// Update loads the list at path, applies fn and writes the result while
// holding an advisory lock next to the file. Nothing is written when fn
// fails.
func Update(ctx context.Context, path string, fn func(*Jumplist) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryWait)
	if err != nil {
		return fmt.Errorf("failed to lock jumplist: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to lock jumplist: %s is held by another process", lock.Path())
	}
	defer lock.Unlock()

	j, err := Load(path)
	if err != nil {
		return err
	}
	if err := fn(j); err != nil {
		return err
	}
	return j.Write()
}
