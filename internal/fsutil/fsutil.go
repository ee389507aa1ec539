package fsutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Nonce returns a short random hex string for temp file names
func Nonce() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; pid keeps
		// names unique enough here
		return fmt.Sprintf("%d", os.Getpid())
	}
	return hex.EncodeToString(b[:])
}

// TempName builds a dot-prefixed sibling name for final. Dot-prefixed files
// are invisible to the inventory scanner, so a crash mid-write never
// produces a half-installed episode.
func TempName(final string) string {
	dir, base := filepath.Split(final)
	return filepath.Join(dir, "."+Nonce()+"-"+base)
}

// WriteFileAtomic writes data to a dot-prefixed temp file in the target's
// directory and renames it into place. Readers never observe a truncated
// document.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}

	tmp := TempName(path)
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("installing %s: %w", path, err)
	}

	return nil
}
