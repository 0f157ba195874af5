package filex

import (
	"fmt"
	"os"
)

// EnsureDir creates dir (and any parents) if it does not exist yet. The
// directory is private to the current user because it may hold key material.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
