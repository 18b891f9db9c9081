package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type memObject struct {
	data []byte
	info ObjectInfo
}

// MemoryStorage is an in-process Gateway. It backs tests and STORAGE_DRIVER=memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memObject
	now     func() time.Time
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		buckets: make(map[string]map[string]memObject),
		now:     time.Now,
	}
}

func (s *MemoryStorage) BucketExists(_ context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

func (s *MemoryStorage) EnsureBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]memObject)
	}
	return nil
}

func (s *MemoryStorage) PutObjectFromPath(_ context.Context, bucket, key, localPath, contentType string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("%w: read %q: %w", ErrStorage, localPath, err)
	}
	sum := md5.Sum(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		return fmt.Errorf("%w: put object %q: bucket %q does not exist", ErrStorage, key, bucket)
	}
	objects[key] = memObject{
		data: data,
		info: ObjectInfo{
			Size:         int64(len(data)),
			ContentType:  contentType,
			ETag:         hex.EncodeToString(sum[:]),
			LastModified: s.now().UTC(),
		},
	}
	return nil
}

func (s *MemoryStorage) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info, nil
}

func (s *MemoryStorage) StatObject(_ context.Context, bucket, key string) (ObjectInfo, error) {
	obj, err := s.lookup(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	return obj.info, nil
}

func (s *MemoryStorage) RemoveObject(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	objects := s.buckets[bucket]
	if _, ok := objects[key]; !ok {
		return fmt.Errorf("%w: remove object %q", ErrNotFound, key)
	}
	delete(objects, key)
	return nil
}

// Keys returns the keys stored in bucket, in no particular order.
func (s *MemoryStorage) Keys(bucket string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.buckets[bucket]))
	for k := range s.buckets[bucket] {
		keys = append(keys, k)
	}
	return keys
}

func (s *MemoryStorage) lookup(bucket, key string) (memObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][key]
	if !ok {
		return memObject{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return obj, nil
}
