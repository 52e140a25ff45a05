package memory

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

type storedObject struct {
	contentType string
	data        []byte
}

// ObjectStore keeps uploads in memory. SignedURL returns a local path under
// baseURL with an expiry query; it is not a real signature.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
	baseURL string
	now     func() time.Time
}

func NewObjectStore(baseURL string) *ObjectStore {
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &ObjectStore{
		objects: make(map[string]storedObject),
		baseURL: baseURL,
		now:     time.Now,
	}
}

func (s *ObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{contentType: contentType, data: buf.Bytes()}
	return nil
}

func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *ObjectStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	exp := s.now().Add(ttl).Unix()
	return s.baseURL + "/" + url.PathEscape(key) + "?expires=" + strconv.FormatInt(exp, 10), nil
}

// Len is for tests.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Get is for tests and local debugging.
func (s *ObjectStore) Get(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	return o.data, o.contentType, ok
}
