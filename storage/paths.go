package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChainDir returns the on-disk directory for a given network magic under datadir:
//
//	datadir/chains/<magic_hex>/
func ChainDir(datadir string, magic uint32) string {
	return filepath.Join(datadir, "chains", fmt.Sprintf("%08x", magic))
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}
