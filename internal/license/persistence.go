package license

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

const (
	// LastKeyFileName holds the last credential the user successfully
	// activated with. It is a display/prefill convenience, never an
	// authorization source.
	LastKeyFileName = "last_cd_key"

	keyStoreDirPerm  = 0o700
	keyStoreFilePerm = 0o600
	maxKeyFileSize   = 4096
)

var errUnsafeKeyStorePath = errors.New("unsafe key store path")

// LastKeyStore persists the single last-known credential across sessions.
type LastKeyStore struct {
	path string
}

// NewLastKeyStore creates a store rooted in the given data directory.
func NewLastKeyStore(dataDir string) (*LastKeyStore, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("%w: empty data directory", errUnsafeKeyStorePath)
	}
	if err := ensureOwnerOnlyDir(dataDir); err != nil {
		return nil, fmt.Errorf("prepare key store directory: %w", err)
	}
	return &LastKeyStore{path: filepath.Join(dataDir, LastKeyFileName)}, nil
}

// Load returns the persisted key, or "" when none has been saved yet.
func (s *LastKeyStore) Load() (string, error) {
	info, err := os.Lstat(s.path)
	if err != nil {
		if isMissingPathError(err) {
			return "", nil
		}
		return "", err
	}
	if err := validateRegularFile(s.path, info); err != nil {
		return "", err
	}
	if info.Size() > maxKeyFileSize {
		return "", fmt.Errorf("%w: file %q exceeds size limit", errUnsafeKeyStorePath, s.path)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save atomically writes the key with owner-only permissions. Saving a blank
// key is rejected; use Clear to remove the stored value.
func (s *LastKeyStore) Save(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("refusing to save blank key")
	}

	if info, err := os.Lstat(s.path); err == nil {
		if err := validateRegularFile(s.path, info); err != nil {
			return err
		}
	} else if !isMissingPathError(err) {
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), LastKeyFileName+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(keyStoreFilePerm); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.WriteString(key + "\n"); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return err
	}
	cleanup = false
	return nil
}

// Clear removes the stored key if present.
func (s *LastKeyStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !isMissingPathError(err) {
		return err
	}
	return nil
}

func ensureOwnerOnlyDir(dir string) error {
	if err := os.MkdirAll(dir, keyStoreDirPerm); err != nil {
		return err
	}
	info, err := os.Lstat(dir)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: refusing symlink directory %q", errUnsafeKeyStorePath, dir)
	}
	return os.Chmod(dir, keyStoreDirPerm)
}

func validateRegularFile(path string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: refusing symlink path %q", errUnsafeKeyStorePath, path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: non-regular path %q", errUnsafeKeyStorePath, path)
	}
	return nil
}

func isMissingPathError(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
