// Package fsstore is a local-filesystem-backed objstore.Store: one file per
// object key under a root directory, directories standing in for key
// prefixes. It is the store the cmd/sortctl demo path runs against when no
// cloud bucket is configured.
//
// The split between a store type (Store) and a per-object handle is the
// same shape SnellerInc/sneller's aws/s3 package uses for its BucketFS/File
// pair; fsstore backs it with os/io instead of S3's HTTP protocol, since a
// full S3 client is explicitly out of this spec's scope (object-store
// client is an assumed external collaborator, §1).
package fsstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sacheendra/serverless-sort/objstore"
)

// Store roots object keys under Root on the local filesystem.
type Store struct {
	Root string
}

// New returns a Store rooted at root, creating it if necessary.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "fsstore: creating root %q", root)
	}
	return &Store{Root: root}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.Root, filepath.FromSlash(key))
}

func (s *Store) ListObjects(_ context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	var out []objstore.ObjectInfo
	root := s.Root
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		out = append(out, objstore.ObjectInfo{Key: key, Size: info.Size()})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "fsstore: listing prefix %q", prefix)
	}
	return out, nil
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	infos, err := s.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(infos))
	for i, info := range infos {
		keys[i] = info.Key
	}
	return keys, nil
}

func (s *Store) OpenRead(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &objstore.NotFoundError{Key: key}
		}
		return nil, errors.Wrapf(err, "fsstore: opening %q", key)
	}
	return f, nil
}

// OpenWrite always publishes atomically regardless of multipart: writes go
// to a uuid-named temp file beside the destination and are renamed into
// place on Close, so a reader never observes a torn write. multipart is
// accepted only to satisfy objstore.Store; the local filesystem has no
// multipart-upload mode to disable.
func (s *Store) OpenWrite(_ context.Context, key string, _ bool) (io.WriteCloser, error) {
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, errors.Wrapf(err, "fsstore: creating parent of %q", key)
	}

	tmp := dst + ".tmp-" + uuid.NewString()
	f, err := os.Create(tmp)
	if err != nil {
		return nil, errors.Wrapf(err, "fsstore: creating temp file for %q", key)
	}
	return &atomicWriter{f: f, tmpPath: tmp, finalPath: dst}, nil
}

type atomicWriter struct {
	f         *os.File
	tmpPath   string
	finalPath string
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *atomicWriter) Close() error {
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return errors.Wrap(err, "fsstore: closing temp file")
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		return errors.Wrapf(err, "fsstore: publishing %q", w.finalPath)
	}
	return nil
}
