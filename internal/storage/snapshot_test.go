package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) UploadFile(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return fmt.Errorf("size mismatch: %d != %d", len(b), size)
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memObjects) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	b, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memObjects) ListKeys(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memObjects) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://minio.local/bucket/" + key + "?X-Amz-Expires=" + fmt.Sprint(int(expires.Seconds())), nil
}

func openStore(t *testing.T) *document.Store {
	t.Helper()
	s, err := document.Open(filepath.Join(t.TempDir(), "db.jsonv"))
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, s *document.Store, ids ...string) {
	t.Helper()
	_, err := s.Update(func(doc *document.Document) error {
		doc.Users = append(doc.Users, models.User{ID: "u_1", Email: "admin@local", Role: models.RoleAdmin})
		for _, id := range ids {
			doc.Cards = append(doc.Cards, models.Card{ID: id, IsGestante: true})
		}
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshotKey(t *testing.T) {
	at := time.Date(2024, 2, 3, 4, 5, 6, 7e6, time.UTC)
	assert.Equal(t, "snapshots/db-20240203T040506.007Z.json", SnapshotKey(at))
}

func TestTakeAndRestoreSnapshot(t *testing.T) {
	ctx := context.Background()
	objs := newMemObjects()
	src := openStore(t)
	seed(t, src, "c1", "c2")

	res, err := TakeSnapshot(ctx, src, objs, time.Now(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)
	assert.Equal(t, 2, res.Cards)
	assert.Contains(t, res.URL, res.Key)
	assert.Equal(t, "application/json", objs.types[res.Key])
	assert.Equal(t, res.Size, int64(len(objs.objects[res.Key])))

	dst := openStore(t)
	seed(t, dst, "other")
	doc, err := RestoreSnapshot(ctx, objs, dst, res.Key)
	require.NoError(t, err)
	require.Len(t, doc.Cards, 2)

	got, err := dst.Read()
	require.NoError(t, err)
	assert.Equal(t, "c1", got.Cards[0].ID)
	assert.Equal(t, "c2", got.Cards[1].ID)
	assert.Len(t, got.Users, 1)
}

func TestTakeSnapshot_NoURLWhenTTLZero(t *testing.T) {
	objs := newMemObjects()
	res, err := TakeSnapshot(context.Background(), openStore(t), objs, time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, res.URL)
	assert.Equal(t, 0, res.Cards)
}

func TestRestoreSnapshot_RejectsBadSnapshots(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       `nope`,
		"unknown field":  `{"users":[],"cards":[],"extra":1}`,
		"duplicate id":   `{"users":[],"cards":[{"id":"c1"},{"id":"c1"}]}`,
		"duplicate user": `{"users":[{"email":"a@local"},{"email":"a@local"}],"cards":[]}`,
		"missing id":     `{"users":[],"cards":[{"address":"x"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			objs := newMemObjects()
			objs.objects["snapshots/bad.json"] = []byte(body)
			dst := openStore(t)
			seed(t, dst, "keep")

			_, err := RestoreSnapshot(ctx, objs, dst, "snapshots/bad.json")
			require.Error(t, err)

			got, err := dst.Read()
			require.NoError(t, err)
			require.Len(t, got.Cards, 1)
			assert.Equal(t, "keep", got.Cards[0].ID)
		})
	}
}

func TestRestoreSnapshot_MissingKey(t *testing.T) {
	_, err := RestoreSnapshot(context.Background(), newMemObjects(), openStore(t), "snapshots/none.json")
	require.Error(t, err)
}
