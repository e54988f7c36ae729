package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/dataroomhq/diligence/service/dao"
)

// Service is a generic afs-backed implementation of dao.Service that keeps
// each entity as a JSON document under baseURL. Any afs scheme works
// (file://, mem://, s3:// ...), which makes the store usable both as a simple
// durable backend and as a test double.
type Service[T any] struct {
	baseURL     string
	fs          afs.Service
	keySelector func(*T) string
	mu          sync.RWMutex
}

// New creates an afs-backed store rooted at baseURL. keySelector extracts the
// entity key used as the file name.
func New[T any](baseURL string, keySelector func(*T) string) *Service[T] {
	return &Service[T]{
		baseURL:     baseURL,
		fs:          afs.New(),
		keySelector: keySelector,
	}
}

var _ dao.Service[string, any] = (*Service[any])(nil)

// Save persists an entity as JSON.
func (s *Service[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	id := s.keySelector(v)
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity %v: %w", id, err)
	}
	location := s.entityURL(id)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save entity to %v: %w", location, err)
	}
	return nil
}

// Load retrieves an entity by id.
func (s *Service[T]) Load(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.entityURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check %v: %w", location, err)
	}
	if !exists {
		// same contract as the memory store: absent entities are nil, not
		// an error
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", location, err)
	}
	var entity T
	if err = json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %v: %w", location, err)
	}
	return &entity, nil
}

// Delete removes an entity; deleting an absent entity is a no-op.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.entityURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil || !exists {
		return err
	}
	return s.fs.Delete(ctx, location)
}

// List returns all stored entities.
func (s *Service[T]) List(ctx context.Context) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list %v: %w", s.baseURL, err)
	}
	var ret []*T
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			return nil, err
		}
		var entity T
		if err = json.Unmarshal(data, &entity); err != nil {
			continue // skip foreign files under the base URL
		}
		ret = append(ret, &entity)
	}
	return ret, nil
}

func (s *Service[T]) entityURL(id string) string {
	return url.Join(s.baseURL, id+".json")
}
