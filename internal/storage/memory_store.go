package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryObject struct {
	content     []byte
	contentType string
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryObject
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Put(_ context.Context, p string, content []byte, contentType string) error {
	key, err := CleanPath(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryObject{content: append([]byte(nil), content...), contentType: contentType}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, p string) ([]byte, error) {
	key, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), obj.content...), nil
}

// ContentType reports the content type an object was stored with.
func (s *MemoryStore) ContentType(p string) (string, bool) {
	key, err := CleanPath(p)
	if err != nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.data[key]
	return obj.contentType, ok
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	want, err := folderPrefix(prefix)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, 16)
	for key := range s.data {
		if strings.HasPrefix(key, want) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}
