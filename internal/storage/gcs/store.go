package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"slices"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/rezkam/reminders/internal/domain"
	backend "github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/document"
	"google.golang.org/api/iterator"
)

const (
	listsPrefix   = "lists/"
	markersPrefix = "markers/"
	listExt       = ".json"
)

// Store is a GCS-based implementation of storage.Backend.
// Lists are objects under <prefix>lists/, markers under <prefix>markers/.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ backend.Backend = (*Store)(nil)

// NewStore creates a new GCS store.
// It assumes the client is authenticated (e.g. via GOOGLE_APPLICATION_CREDENTIALS).
// prefix scopes all objects, so one bucket can serve several deployments.
func NewStore(ctx context.Context, bucketName, prefix string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{
		client: client,
		bucket: bucketName,
		prefix: prefix,
	}, nil
}

func (s *Store) listObject(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", backend.ErrInvalidKey)
	}
	return path.Join(s.prefix+listsPrefix, url.PathEscape(key)+listExt), nil
}

func (s *Store) markerObject(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", backend.ErrInvalidKey)
	}
	return path.Join(s.prefix+markersPrefix, url.PathEscape(key)), nil
}

// Load retrieves a reminder list from GCS.
func (s *Store) Load(ctx context.Context, key string) ([]domain.Reminder, error) {
	name, err := s.listObject(key)
	if err != nil {
		return nil, err
	}

	data, err := s.read(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return document.Decode(data)
}

// Save overwrites the reminder list object for key.
func (s *Store) Save(ctx context.Context, key string, list []domain.Reminder) error {
	name, err := s.listObject(key)
	if err != nil {
		return err
	}

	data, err := document.Encode(list)
	if err != nil {
		return err
	}
	return s.write(ctx, name, data, "application/json")
}

func (s *Store) GetMarker(ctx context.Context, key string) (string, error) {
	name, err := s.markerObject(key)
	if err != nil {
		return "", err
	}

	data, err := s.read(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) PutMarker(ctx context.Context, key, value string) error {
	name, err := s.markerObject(key)
	if err != nil {
		return err
	}
	return s.write(ctx, name, []byte(value), "text/plain")
}

// Keys scans the bucket for list objects.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	prefix := s.prefix + listsPrefix
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		name := strings.TrimPrefix(attrs.Name, prefix)
		if !strings.HasSuffix(name, listExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, listExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}

	slices.Sort(keys)
	return keys, nil
}

// Close closes the GCS client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (s *Store) write(ctx context.Context, name string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}
