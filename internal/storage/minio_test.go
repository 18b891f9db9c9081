package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	body         string
	contentType  string
	etag         string
	lastModified time.Time
}

// fakeS3 answers the path-style S3 requests MinioStorage issues and records
// every request it sees.
type fakeS3 struct {
	mu             sync.Mutex
	buckets        map[string]bool
	objects        map[string]fakeObject
	makeBucketCode string
	requests       []string
}

func newFakeS3(t *testing.T) (*fakeS3, *MinioStorage) {
	t.Helper()
	f := &fakeS3{
		buckets: map[string]bool{},
		objects: map[string]fakeObject{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := NewMinioStorage(strings.TrimPrefix(srv.URL, "http://"), "access", "secret", false)
	require.NoError(t, err)
	return f, s
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.URL.Query().Has("location") {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/"></LocationConstraint>`)
		return
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if key == "" {
		f.serveBucket(w, r, bucket)
		return
	}

	obj, ok := f.objects[bucket+"/"+key]
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		if !ok {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeS3Error(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		h := w.Header()
		h.Set("Content-Length", strconv.Itoa(len(obj.body)))
		h.Set("Content-Type", obj.contentType)
		h.Set("ETag", `"`+obj.etag+`"`)
		h.Set("Last-Modified", obj.lastModified.UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, obj.body)
		}
	case http.MethodDelete:
		delete(f.objects, bucket+"/"+key)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented")
	}
}

func (f *fakeS3) serveBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	switch r.Method {
	case http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		if f.makeBucketCode != "" {
			writeS3Error(w, http.StatusConflict, f.makeBucketCode)
			return
		}
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	default:
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented")
	}
}

func writeS3Error(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>`+
		`<Error><Code>%s</Code><Message>%s</Message><RequestId>req-1</RequestId></Error>`, code, code)
}

func (f *fakeS3) put(bucket, key string, obj fakeObject) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[bucket] = true
	f.objects[bucket+"/"+key] = obj
}

func (f *fakeS3) methods(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		if strings.HasPrefix(r, method+" ") {
			out = append(out, r)
		}
	}
	return out
}

var catObject = fakeObject{
	body:         "pretend png bytes",
	contentType:  "image/png",
	etag:         "5d41402abc4b2a76b9719d911017c592",
	lastModified: time.Date(2024, 3, 14, 15, 9, 26, 0, time.UTC),
}

func TestMinioRemoveMissingObject(t *testing.T) {
	f, s := newFakeS3(t)
	f.put("images", "other.png", catObject)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := s.RemoveObject(ctx, "images", "missing.png")
		require.ErrorIs(t, err, ErrNotFound, "attempt %d", i+1)
	}
	assert.Empty(t, f.methods(http.MethodDelete), "no DELETE may be sent for a missing key")
}

func TestMinioRemoveThenRemoveAgain(t *testing.T) {
	f, s := newFakeS3(t)
	f.put("images", "cat.png", catObject)
	ctx := context.Background()

	require.NoError(t, s.RemoveObject(ctx, "images", "cat.png"))
	assert.Equal(t, []string{"DELETE /images/cat.png"}, f.methods(http.MethodDelete))

	require.ErrorIs(t, s.RemoveObject(ctx, "images", "cat.png"), ErrNotFound)
	assert.Len(t, f.methods(http.MethodDelete), 1)
}

func TestMinioGetObject(t *testing.T) {
	f, s := newFakeS3(t)
	f.put("images", "cat.png", catObject)
	ctx := context.Background()

	_, _, err := s.GetObject(ctx, "images", "missing.png")
	require.ErrorIs(t, err, ErrNotFound)

	rc, info, err := s.GetObject(ctx, "images", "cat.png")
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(len(catObject.body)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, catObject.etag, info.ETag)

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, catObject.body, string(body))
}

func TestMinioStatObject(t *testing.T) {
	f, s := newFakeS3(t)
	f.put("images", "cat.png", catObject)
	ctx := context.Background()

	info, err := s.StatObject(ctx, "images", "cat.png")
	require.NoError(t, err)
	assert.Equal(t, int64(len(catObject.body)), info.Size)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, catObject.etag, info.ETag)
	assert.True(t, catObject.lastModified.Equal(info.LastModified), "got %s", info.LastModified)

	_, err = s.StatObject(ctx, "images", "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMinioEnsureBucket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing bucket", func(t *testing.T) {
		f, s := newFakeS3(t)
		require.NoError(t, s.EnsureBucket(ctx, "images"))
		assert.Equal(t, []string{"PUT /images"}, f.methods(http.MethodPut))

		exists, err := s.BucketExists(ctx, "images")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("existing bucket is left alone", func(t *testing.T) {
		f, s := newFakeS3(t)
		f.put("images", "cat.png", catObject)
		require.NoError(t, s.EnsureBucket(ctx, "images"))
		assert.Empty(t, f.methods(http.MethodPut))
	})

	t.Run("lost creation race", func(t *testing.T) {
		f, s := newFakeS3(t)
		f.makeBucketCode = "BucketAlreadyOwnedByYou"
		assert.NoError(t, s.EnsureBucket(ctx, "images"))
	})

	t.Run("creation refused", func(t *testing.T) {
		f, s := newFakeS3(t)
		f.makeBucketCode = "AccessDenied"
		assert.ErrorIs(t, s.EnsureBucket(ctx, "images"), ErrStorage)
	})
}
