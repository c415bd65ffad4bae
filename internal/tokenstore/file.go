package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FilePerms restricts the token file to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the token directory.
const DirPerms = 0o700

// fileFormat is the on-disk JSON shape. A version field leaves room for
// format changes without breaking old files.
type fileFormat struct {
	Version int               `json:"version"`
	Tokens  map[string]string `json:"tokens"`
}

const fileFormatVersion = 1

// File is a Store backed by a JSON file, written atomically
// (write-to-temp + fsync + rename) with 0600 permissions. Every Get
// re-reads the file so concurrent processes always observe the latest
// write. Clear removes the file entirely.
type File struct {
	path string

	// mu serializes read-modify-write cycles within this process.
	// Cross-process atomicity comes from the rename.
	mu sync.Mutex
}

// NewFile creates a file-backed store at path. The file is created lazily
// on first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.load()
	if err != nil {
		return "", err
	}

	return tokens[key], nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tokens, err := f.load()
	if err != nil {
		return err
	}

	tokens[key] = value

	return f.save(tokens)
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("tokenstore: removing %s: %w", f.path, err)
	}

	return nil
}

// load reads the token map from disk. A missing file yields an empty map.
func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}

	if err != nil {
		return nil, fmt.Errorf("tokenstore: reading %s: %w", f.path, err)
	}

	var parsed fileFormat
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("tokenstore: decoding %s: %w", f.path, err)
	}

	if parsed.Tokens == nil {
		parsed.Tokens = make(map[string]string)
	}

	return parsed.Tokens, nil
}

// save writes the token map to disk atomically. Temp file in the same
// directory guarantees same filesystem for rename(2).
func (f *File) save(tokens map[string]string) error {
	data, err := json.MarshalIndent(fileFormat{Version: fileFormatVersion, Tokens: tokens}, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenstore: encoding: %w", err)
	}

	dir := filepath.Dir(f.path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("tokenstore: creating directory %s: %w", dir, mkErr)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up the temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: writing: %w", err)
	}

	// Flush to stable storage before rename so a power loss between close
	// and rename cannot leave an empty or partial file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenstore: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: closing: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("tokenstore: renaming: %w", err)
	}

	success = true

	return nil
}
