package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File keeps one JSON document per session in Dir. Writes go to a temporary
// file in the same directory which is synced and renamed over the target.
type File struct {
	Dir string
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("store dir is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return &File{Dir: dir}, nil
}

func (f *File) path(sessionID string) string {
	return filepath.Join(f.Dir, fileName(sessionID))
}

// fileName keeps simple ids readable and hashes anything else.
func fileName(sessionID string) string {
	ok := sessionID != "" && len(sessionID) <= 64
	for _, r := range sessionID {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			ok = false
			break
		}
	}
	if ok {
		return "session-" + sessionID + ".json"
	}
	sum := sha256.Sum256([]byte(sessionID))
	return "session-" + hex.EncodeToString(sum[:8]) + ".json"
}

func (f *File) Save(ctx context.Context, sessionID string, snap Snapshot) (err error) {
	b, err := Encode(snap)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.Dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(b); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), f.path(sessionID)); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (f *File) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	b, err := os.ReadFile(f.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return Decode(b)
}

func (f *File) Clear(ctx context.Context, sessionID string) error {
	err := os.Remove(f.path(sessionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
