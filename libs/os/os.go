package os

import (
	"bytes"
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"
)

// EnsureDir creates dir, and any missing parents, if it does not exist.
func EnsureDir(dir string, mode os.FileMode) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("could not create directory %v: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether anything exists at filePath.
func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}

// WriteFileAtomic writes contents to a temporary file next to filePath and
// renames it into place, so readers never see a partially written file.
func WriteFileAtomic(filePath string, contents []byte, mode os.FileMode) error {
	if _, err := atomicfile.WriteAll(filePath, bytes.NewReader(contents), mode); err != nil {
		return fmt.Errorf("could not write %v: %w", filePath, err)
	}
	return nil
}
