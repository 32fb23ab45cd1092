package file

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const ext = ".ckpt"

// Medium implements ports.ListableMedium on the local filesystem.
// Each key is stored as one file; file names are the base64url form of the key
// so any key is a valid name on every platform.
type Medium struct {
	BasePath string
}

// New creates a new Medium rooted at basePath.
// If basePath is empty, it defaults to ".storyline/checkpoints".
func New(basePath string) *Medium {
	if basePath == "" {
		basePath = filepath.Join(".storyline", "checkpoints")
	}
	return &Medium{BasePath: basePath}
}

func (m *Medium) path(key string) string {
	return filepath.Join(m.BasePath, base64.RawURLEncoding.EncodeToString([]byte(key))+ext)
}

// GetItem reads the file holding key.
func (m *Medium) GetItem(ctx context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(m.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read checkpoint file: %w", err)
	}
	return string(data), true, nil
}

// SetItem writes value atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (m *Medium) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := os.MkdirAll(m.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure checkpoint directory: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(m.BasePath, "tmp-*"+ext+".part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.WriteString(value); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := m.path(key)
	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing checkpoint file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// RemoveItem deletes the file holding key.
func (m *Medium) RemoveItem(ctx context.Context, key string) error {
	err := os.Remove(m.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint file: %w", err)
	}
	return nil
}

// Keys returns the stored keys starting with prefix, sorted.
func (m *Medium) Keys(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(m.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, ext))
		if err != nil {
			continue // not ours
		}
		if key := string(raw); strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
