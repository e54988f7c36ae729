// Package objectstore provides content storage for original files and
// rendered page images behind viant/afs, so the concrete backend (local
// file system, memory, S3, GCS) is a base-URL concern of the caller.
package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Error wraps a failed object store operation. Storage failures abort the
// current ingestion and are surfaced to the caller unretried.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("objectstore: %v %v: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Service stores binary blobs under keys relative to a base URL.
type Service interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	baseURL string
	fs      afs.Service
}

// New creates a store rooted at baseURL, e.g. file:///var/diligence/blobs or
// mem://localhost/blobs in tests.
func New(baseURL string) Service {
	return &service{baseURL: baseURL, fs: afs.New()}
}

func (s *service) Put(ctx context.Context, key string, data []byte) error {
	location := url.Join(s.baseURL, key)
	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return &Error{Op: "put", Key: key, Err: err}
	}
	return nil
}

func (s *service) Get(ctx context.Context, key string) ([]byte, error) {
	location := url.Join(s.baseURL, key)
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, &Error{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	location := url.Join(s.baseURL, key)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, location); err != nil {
		return &Error{Op: "delete", Key: key, Err: err}
	}
	return nil
}
