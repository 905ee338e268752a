package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/pkg/logger"
)

// SnapshotPrefix is the key prefix of every uploaded snapshot.
const SnapshotPrefix = "snapshots/"

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the subset of *MinIOStorage the snapshot functions need.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	ListKeys(ctx context.Context, prefix string) ([]ObjectInfo, error)
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// DocumentStore is satisfied by *document.Store.
type DocumentStore interface {
	Read() (*document.Document, error)
	Update(fn document.Mutator) (*document.Document, error)
}

type SnapshotResult struct {
	Key   string
	Size  int64
	Users int
	Cards int
	URL   string
}

// SnapshotKey names the snapshot taken at t.
func SnapshotKey(t time.Time) string {
	return SnapshotPrefix + "db-" + t.UTC().Format("20060102T150405.000Z") + ".json"
}

// TakeSnapshot uploads a consistent copy of the document. When urlTTL is
// positive the result carries a presigned download URL.
func TakeSnapshot(ctx context.Context, src DocumentStore, dst ObjectStore, at time.Time, urlTTL time.Duration) (SnapshotResult, error) {
	doc, err := src.Read()
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("read document: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("encode snapshot: %w", err)
	}
	res := SnapshotResult{Key: SnapshotKey(at), Size: int64(len(data)), Users: len(doc.Users), Cards: len(doc.Cards)}
	if err := dst.UploadFile(ctx, res.Key, bytes.NewReader(data), res.Size, "application/json"); err != nil {
		return SnapshotResult{}, fmt.Errorf("upload snapshot: %w", err)
	}
	if urlTTL > 0 {
		u, err := dst.GetPresignedURL(ctx, res.Key, urlTTL)
		if err != nil {
			return SnapshotResult{}, fmt.Errorf("presign snapshot: %w", err)
		}
		res.URL = u
	}
	logger.Infof("snapshot uploaded: key=%s users=%d cards=%d", res.Key, res.Users, res.Cards)
	return res, nil
}

// RestoreSnapshot replaces the whole document with the snapshot stored at key.
// The replacement is a single store update, so it is atomic.
func RestoreSnapshot(ctx context.Context, src ObjectStore, dst DocumentStore, key string) (*document.Document, error) {
	rc, err := src.DownloadFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w", err)
	}
	defer rc.Close()

	dec := json.NewDecoder(rc)
	dec.DisallowUnknownFields()
	var snap document.Document
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	if err := checkUnique(&snap); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", key, err)
	}
	doc, err := dst.Update(func(doc *document.Document) error {
		*doc = snap
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Warnf("document restored from snapshot %s: users=%d cards=%d", key, len(doc.Users), len(doc.Cards))
	return doc, nil
}

func checkUnique(doc *document.Document) error {
	emails := make(map[string]bool, len(doc.Users))
	for _, u := range doc.Users {
		if emails[u.Email] {
			return fmt.Errorf("duplicate user email %q", u.Email)
		}
		emails[u.Email] = true
	}
	ids := make(map[string]bool, len(doc.Cards))
	for _, c := range doc.Cards {
		if c.ID == "" {
			return fmt.Errorf("card without id")
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate card id %q", c.ID)
		}
		ids[c.ID] = true
	}
	return nil
}
