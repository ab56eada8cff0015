package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout names run directories, e.g. 2024_03_09_T14_05_59
const TimestampLayout = "2006_01_02_T15_04_05"

// NewRunDir creates base/prefix+timestamp and returns its path
func NewRunDir(base, prefix string) (string, error) {
	return newRunDir(base, prefix, time.Now())
}

func newRunDir(base, prefix string, now time.Time) (string, error) {
	return CreateDir(filepath.Join(base, prefix+now.Format(TimestampLayout)))
}

// CreateDir creates dir, or accepts it if it already exists and holds
// nothing but log and JSON files
func CreateDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
		return dir, nil
	case err != nil:
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".json") {
			continue
		}
		return "", fmt.Errorf("%w: %s", ErrDirNotEmpty, dir)
	}
	return dir, nil
}
