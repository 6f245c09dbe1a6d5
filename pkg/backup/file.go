package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// tempPattern names the staging files of writeAtomic.
const tempPattern = ".backup-*.tmp"

// WriteFunc writes encoded manifest bytes to w.
type WriteFunc func(w io.Writer, data []byte) error

func writeAll(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

// writeAtomic stages data in a temporary file inside dir and renames it to
// name once fully written and synced. On any failure the temporary file is
// removed and name is left untouched.
func writeAtomic(dir, name string, data []byte, write WriteFunc) (err error) {
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = write(tmp, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync manifest: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err = os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("failed to rename manifest: %w", err)
	}
	return nil
}

// freeName returns the first manifest name for t not yet taken in dir.
// Callers hold the backup lock, so the name stays free until the rename.
func freeName(dir string, t time.Time) (string, error) {
	name := FileName(t)
	for seq := 1; ; seq++ {
		_, err := os.Lstat(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check backup file %s: %w", name, err)
		}
		name = sequencedFileName(t, seq)
	}
}

// Info describes a manifest file on disk.
type Info struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// listManifests returns the manifests in dir, newest first. A missing
// directory yields an empty list.
func listManifests(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !ValidName(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{Name: entry.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ModTime.Equal(infos[j].ModTime) {
			return infos[i].Name > infos[j].Name
		}
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// staleTemps returns staging files in dir last modified before cutoff. They
// are left behind when the process dies mid-write.
func staleTemps(dir string, cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var stale []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(tempPattern, entry.Name()); !ok {
			continue
		}
		fi, err := entry.Info()
		if err != nil || !fi.ModTime().Before(cutoff) {
			continue
		}
		stale = append(stale, entry.Name())
	}
	return stale, nil
}
