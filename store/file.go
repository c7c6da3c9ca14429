/*
file.go - JSON document store on the local filesystem

PURPOSE:
  Persists the state document as a single JSON file. Saves are atomic
  (temp file + rename) so a crash mid-write never corrupts the document.
  Pre-migration backups go to a sibling backups/ directory with
  timestamped, never-overwritten filenames.

NOTE:
  Debouncing lives in the ledger, not here; Save is a plain durable write.
*/
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	backupDirName    = "backups"
	backupFilePrefix = "state-"
	backupFileSuffix = ".json"
)

type File struct {
	path      string
	backupDir string
}

// NewFile creates a file store at path. Parent directories are created on
// first save.
func NewFile(path string) *File {
	return &File{
		path:      path,
		backupDir: filepath.Join(filepath.Dir(path), backupDirName),
	}
}

// Load returns the document bytes, or nil when no file exists yet.
func (f *File) Load() ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Save atomically replaces the document.
func (f *File) Save(raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (f *File) Close() error { return nil }

// WriteBackup writes an untouched copy of raw to the backups directory.
// Filenames are timestamped; an existing file is never overwritten, a
// counter suffix disambiguates same-second backups.
func (f *File) WriteBackup(raw []byte) (string, error) {
	if err := os.MkdirAll(f.backupDir, 0o700); err != nil {
		return "", err
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(f.backupDir, backupFilePrefix+timestamp+backupFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename in %s", f.backupDir)
		}
		path = filepath.Join(f.backupDir,
			fmt.Sprintf("%s%s-%d%s", backupFilePrefix, timestamp, counter, backupFileSuffix))
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
