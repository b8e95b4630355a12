// internal/store/checkpoint.go
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Checkpoint is the append-only log of processed user logins, one per line.
// A login in the checkpoint is never reprocessed by a later run. Appends
// rewrite the whole file to a temp path and rename it into place, so an
// interrupted write can never truncate previously recorded progress.
type Checkpoint struct {
	path string
}

// NewCheckpoint returns a checkpoint backed by the given file path. The
// file does not need to exist yet.
func NewCheckpoint(path string) *Checkpoint {
	return &Checkpoint{path: path}
}

// Path returns the checkpoint file path.
func (c *Checkpoint) Path() string {
	return c.path
}

// Load reads the processed logins in file order. A missing file is an empty
// checkpoint, not an error.
func (c *Checkpoint) Load() ([]string, error) {
	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint: %w", err)
	}
	defer f.Close()

	var logins []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		login := strings.TrimSpace(scanner.Text())
		if login != "" {
			logins = append(logins, login)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}
	return logins, nil
}

// LoadSet reads the checkpoint into a membership set.
func (c *Checkpoint) LoadSet() (map[string]struct{}, error) {
	logins, err := c.Load()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(logins))
	for _, l := range logins {
		set[l] = struct{}{}
	}
	return set, nil
}

// Append records newly processed logins. Logins already present are kept
// once; the existing order is preserved and new entries go at the end.
func (c *Checkpoint) Append(logins []string) error {
	if len(logins) == 0 {
		return nil
	}

	existing, err := c.Load()
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, l := range existing {
		seen[l] = struct{}{}
	}
	merged := existing
	for _, l := range logins {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		merged = append(merged, l)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp checkpoint: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, l := range merged {
		if _, err := fmt.Fprintln(w, l); err != nil {
			tmp.Close()
			return fmt.Errorf("writing checkpoint: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("renaming checkpoint into place: %w", err)
	}
	return nil
}

// LoadUserList reads the candidate user list, one login per line, blank
// lines skipped.
func LoadUserList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening user list: %w", err)
	}
	defer f.Close()

	var users []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		login := strings.TrimSpace(scanner.Text())
		if login != "" {
			users = append(users, login)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading user list: %w", err)
	}
	return users, nil
}
