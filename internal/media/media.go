// Package media stores uploaded assets in public buckets on local disk.
package media

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/peterbourgon/diskv/v3"

	appLog "socialsync/internal/log"
	"socialsync/internal/model"
)

// MaxObjectSize bounds a single upload.
const MaxObjectSize = 50 << 20

var bucketRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,62}$`)

// Object describes a stored asset.
type Object struct {
	Bucket      string `json:"bucket"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// Media converts o into the attachment form used by events.
func (o Object) Media() model.Media {
	kind := "image"
	if strings.HasPrefix(o.ContentType, "video/") {
		kind = "video"
	}
	return model.Media{Thumbnail: o.URL, Kind: kind, Size: humanize.Bytes(uint64(o.Size))}
}

// Store keeps objects under <dir>/<bucket>/<path>.
type Store struct {
	d       *diskv.Diskv
	baseURL string

	mu sync.Mutex // serializes existence checks with writes and erases
}

// New opens a store rooted at dir. Public URLs are baseURL/<bucket>/<path>.
func New(dir, baseURL string) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:          dir,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      8 << 20,
		}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{Path: parts[:len(parts)-1], FileName: parts[len(parts)-1]}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pk.Path...), pk.FileName), "/")
}

// key validates bucket and object path and joins them.
func key(bucket, p string) (string, error) {
	if !bucketRe.MatchString(bucket) {
		return "", fmt.Errorf("%w: invalid bucket %q", model.ErrValidation, bucket)
	}
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "\\") || path.Clean(p) != p {
		return "", fmt.Errorf("%w: invalid object path %q", model.ErrValidation, p)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." || strings.HasPrefix(seg, ".") {
			return "", fmt.Errorf("%w: invalid object path %q", model.ErrValidation, p)
		}
	}
	return bucket + "/" + p, nil
}

// Upload stores r at bucket/path. Existing objects are never overwritten.
func (s *Store) Upload(bucket, p string, r io.Reader) (Object, error) {
	k, err := key(bucket, p)
	if err != nil {
		return Object{}, err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectSize+1))
	if err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxObjectSize {
		return Object{}, fmt.Errorf("%w: object exceeds %s", model.ErrValidation, humanize.Bytes(MaxObjectSize))
	}
	if len(data) == 0 {
		return Object{}, fmt.Errorf("%w: empty upload", model.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.Has(k) {
		return Object{}, fmt.Errorf("object %s: %w", k, model.ErrConflict)
	}
	if err := s.d.Write(k, data); err != nil {
		return Object{}, fmt.Errorf("write object %s: %w", k, err)
	}
	appLog.Info("media uploaded", "bucket", bucket, "path", p, "bytes", len(data))
	return s.object(bucket, p, data), nil
}

// PublicURL returns the URL an object is served from. It does not check
// that the object exists.
func (s *Store) PublicURL(bucket, p string) (string, error) {
	if _, err := key(bucket, p); err != nil {
		return "", err
	}
	return s.url(bucket, strings.TrimPrefix(p, "/")), nil
}

func (s *Store) url(bucket, p string) string {
	segs := strings.Split(p, "/")
	for i := range segs {
		segs[i] = url.PathEscape(segs[i])
	}
	return s.baseURL + "/" + bucket + "/" + strings.Join(segs, "/")
}

// Open returns the object's bytes and metadata.
func (s *Store) Open(bucket, p string) (Object, []byte, error) {
	k, err := key(bucket, p)
	if err != nil {
		return Object{}, nil, err
	}
	if !s.d.Has(k) {
		return Object{}, nil, fmt.Errorf("object %s: %w", k, model.ErrNotFound)
	}
	data, err := s.d.Read(k)
	if err != nil {
		return Object{}, nil, fmt.Errorf("read object %s: %w", k, err)
	}
	return s.object(bucket, p, data), data, nil
}

// Delete removes an object.
func (s *Store) Delete(bucket, p string) error {
	k, err := key(bucket, p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.d.Has(k) {
		return fmt.Errorf("object %s: %w", k, model.ErrNotFound)
	}
	if err := s.d.Erase(k); err != nil {
		return fmt.Errorf("erase object %s: %w", k, err)
	}
	return nil
}

// List returns the object paths in bucket.
func (s *Store) List(bucket string) ([]string, error) {
	if !bucketRe.MatchString(bucket) {
		return nil, fmt.Errorf("%w: invalid bucket %q", model.ErrValidation, bucket)
	}
	var out []string
	for k := range s.d.KeysPrefix(bucket+"/", nil) {
		out = append(out, strings.TrimPrefix(k, bucket+"/"))
	}
	return out, nil
}

func (s *Store) object(bucket, p string, data []byte) Object {
	p = strings.TrimPrefix(p, "/")
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	return Object{
		Bucket:      bucket,
		Path:        p,
		Size:        int64(len(data)),
		ContentType: http.DetectContentType(sniff),
		URL:         s.url(bucket, p),
	}
}
