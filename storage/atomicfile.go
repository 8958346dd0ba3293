package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// readFileByPath reads a file by splitting it into a directory and a bare file
// name and resolving the name through fs.ReadFile, which rejects traversal
// ("..") and absolute components. Used for files named by configuration
// rather than by the caller directly (e.g. the consensus checkpoint file
// read by LoadCheckpoint).
func readFileByPath(path string) ([]byte, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	return readFileFromDir(dir, name)
}

func readFileFromDir(dir, name string) ([]byte, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid file name: %q", name)
	}
	return fs.ReadFile(os.DirFS(dir), name)
}

// writeFileAtomic writes data to path via a temp file + rename, then fsyncs
// the containing directory so the rename itself is durable.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	d, err := os.Open(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
