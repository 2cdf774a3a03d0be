package attachments

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"document-workflow/internal/common/errors"

	"github.com/google/uuid"
)

// MemoryStore keeps preview content in process under blob:<uuid> refs.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	contentType string
	content     []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]memoryBlob)}
}

func (s *MemoryStore) Put(_ context.Context, _ string, contentType string, content []byte) (string, error) {
	ref := "blob:" + uuid.NewString()
	s.mu.Lock()
	s.blobs[ref] = memoryBlob{contentType: contentType, content: content}
	s.mu.Unlock()
	return ref, nil
}

func (s *MemoryStore) Release(_ context.Context, ref string) error {
	s.mu.Lock()
	delete(s.blobs, ref)
	s.mu.Unlock()
	return nil
}

// Get returns the content behind a ref.
func (s *MemoryStore) Get(ref string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[ref]
	return b.content, b.contentType, ok
}

// Len is the number of live handles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// ObjectStore is satisfied by *aws.S3Client.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3Store stages preview content under <prefix>/<session>/<uuid> and hands out
// presigned GET URLs as refs.
type S3Store struct {
	objects ObjectStore
	prefix  string
	ttl     time.Duration

	mu   sync.Mutex
	keys map[string]string // ref -> key
}

func NewS3Store(objects ObjectStore, prefix string, ttl time.Duration) *S3Store {
	return &S3Store{
		objects: objects,
		prefix:  strings.Trim(prefix, "/"),
		ttl:     ttl,
		keys:    make(map[string]string),
	}
}

func (s *S3Store) Put(ctx context.Context, sessionID, contentType string, content []byte) (string, error) {
	key := path.Join(s.prefix, sessionID, uuid.NewString())
	if err := s.objects.PutObject(ctx, key, contentType, bytes.NewReader(content)); err != nil {
		return "", errors.NewStorageFailedError("put", err)
	}
	url, err := s.objects.PresignGet(ctx, key, s.ttl)
	if err != nil {
		_ = s.objects.DeleteObject(ctx, key)
		return "", errors.NewStorageFailedError("presign", err)
	}
	s.mu.Lock()
	s.keys[url] = key
	s.mu.Unlock()
	return url, nil
}

func (s *S3Store) Release(ctx context.Context, ref string) error {
	s.mu.Lock()
	key, ok := s.keys[ref]
	delete(s.keys, ref)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := s.objects.DeleteObject(ctx, key); err != nil {
		return errors.NewStorageFailedError("delete", err)
	}
	return nil
}
