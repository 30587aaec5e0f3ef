// Package filestore keeps uploaded files on an afero filesystem.
package filestore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BlobStore = (*Store)(nil)

// Store writes blobs under a root directory. Keys are flat file names.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore creates a store rooted at dir on fs, creating dir if needed
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{fs: fs, root: dir}, nil
}

// NewOSStore creates a store on the local disk
func NewOSStore(dir string) (*Store, error) {
	return NewStore(afero.NewOsFs(), dir)
}

// NewMemStore creates a store backed by memory (for tests and ephemeral runs)
func NewMemStore() *Store {
	s, _ := NewStore(afero.NewMemMapFs(), "/uploads")
	return s
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("blob key %q: %w", key, domain.ErrInvalidInput)
	}
	return filepath.Join(s.root, key), nil
}

// Put streams r into a temporary file, hashing as it goes, then renames it into place.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, maxSize int64) (*driven.BlobInfo, error) {
	target, err := s.path(key)
	if err != nil {
		return nil, err
	}

	tmp := target + ".part"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}

	hash, _ := blake2b.New256(nil)
	src := r
	if maxSize > 0 {
		// One extra byte tells an exact fit from an overflow.
		src = io.LimitReader(r, maxSize+1)
	}

	n, err := io.Copy(io.MultiWriter(f, hash), src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("write blob: %w", err)
	}
	if maxSize > 0 && n > maxSize {
		_ = s.fs.Remove(tmp)
		return nil, domain.ErrTooLarge
	}

	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("commit blob: %w", err)
	}

	return &driven.BlobInfo{
		Key:      key,
		Size:     n,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
