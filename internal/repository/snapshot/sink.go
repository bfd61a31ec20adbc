package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"credential-server/internal/storage"
)

// ErrNoSnapshot is returned by a Sink that has never been written.
var ErrNoSnapshot = errors.New("snapshot does not exist")

// Sink is the durable destination of the serialized user list.
type Sink interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	String() string
}

// FileSink keeps the snapshot in a single file on local disk.
type FileSink struct {
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (f *FileSink) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Save replaces the file through a temp file and rename so readers never
// observe a partially written snapshot.
func (f *FileSink) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (f *FileSink) String() string {
	return f.path
}

// ObjectSink keeps the snapshot as one object in a bucket.
type ObjectSink struct {
	store  storage.Service
	bucket string
	key    string
}

func NewObjectSink(store storage.Service, bucket, key string) *ObjectSink {
	return &ObjectSink{store: store, bucket: bucket, key: key}
}

func (o *ObjectSink) Load(ctx context.Context) ([]byte, error) {
	data, err := o.store.Get(ctx, o.bucket, o.key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return data, nil
}

func (o *ObjectSink) Save(ctx context.Context, data []byte) error {
	return o.store.Put(ctx, o.bucket, o.key, data)
}

func (o *ObjectSink) String() string {
	return fmt.Sprintf("s3://%s/%s", o.bucket, o.key)
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*ObjectSink)(nil)
)
