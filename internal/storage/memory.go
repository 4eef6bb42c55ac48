package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

type memObject struct {
	body []byte
	info Info
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	objects    map[string]memObject
	publicPath string
}

func NewMemory(publicPath string) *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject), publicPath: publicPath}
}

func (s *MemoryStore) Driver() Driver { return DriverMemory }

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	info := Info{Key: clean, Size: int64(len(body)), ContentType: opts.ContentType, LastModified: time.Now().UTC()}

	s.mu.Lock()
	s.objects[clean] = memObject{body: body, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *MemoryStore) Open(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return Info{}, nil, ErrNotFound
	}
	return obj.info, io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return false, nil
	}
	delete(s.objects, key)
	return true, nil
}

func (s *MemoryStore) URL(ctx context.Context, key string, _ time.Duration) (string, error) {
	return s.publicPath + "/" + key, nil
}

// Keys lists stored keys.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	return keys
}
