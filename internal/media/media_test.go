package media

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialsync/internal/model"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestUploadOpenDelete(t *testing.T) {
	s := New(t.TempDir(), "http://localhost:8080/media/")

	obj, err := s.Upload("post-media", "org-1/launch.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/post-media/org-1/launch.png", obj.URL)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(len(pngHeader)), obj.Size)

	m := obj.Media()
	assert.Equal(t, "image", m.Kind)
	assert.Equal(t, obj.URL, m.Thumbnail)
	assert.Equal(t, "12 B", m.Size)

	got, data, err := s.Open("post-media", "org-1/launch.png")
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, obj.URL, got.URL)

	paths, err := s.List("post-media")
	require.NoError(t, err)
	assert.Equal(t, []string{"org-1/launch.png"}, paths)

	require.NoError(t, s.Delete("post-media", "org-1/launch.png"))
	_, _, err = s.Open("post-media", "org-1/launch.png")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.Delete("post-media", "org-1/launch.png"), model.ErrNotFound)
}

func TestUploadRefusesOverwrite(t *testing.T) {
	s := New(t.TempDir(), "/media")
	_, err := s.Upload("avatars", "u1.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	_, err = s.Upload("avatars", "u1.png", strings.NewReader("other"))
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestConcurrentUploadsWriteOnce(t *testing.T) {
	s := New(t.TempDir(), "/media")
	const n = 16
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Upload("avatars", "race.png", bytes.NewReader(append(bytes.Clone(pngHeader), byte('a'+i))))
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, model.ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestRejectsBadKeys(t *testing.T) {
	s := New(t.TempDir(), "/media")
	for _, tc := range []struct{ bucket, path string }{
		{"../etc", "passwd"},
		{"Bucket", "a.png"},
		{"ok", "../escape.png"},
		{"ok", "a//b.png"},
		{"ok", ".hidden"},
		{"ok", ""},
	} {
		_, err := s.Upload(tc.bucket, tc.path, bytes.NewReader(pngHeader))
		assert.ErrorIs(t, err, model.ErrValidation, "%s/%s", tc.bucket, tc.path)
	}
	_, err := s.Upload("ok", "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestPublicURLEscapes(t *testing.T) {
	s := New(t.TempDir(), "/media")
	u, err := s.PublicURL("post-media", "org 1/my photo.png")
	require.NoError(t, err)
	assert.Equal(t, "/media/post-media/org%201/my%20photo.png", u)
}
