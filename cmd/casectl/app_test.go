package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/models"
	"github.com/acompanha/acompanha/internal/records/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedUser(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db.jsonv")

	out, err := run(t, "", "--db", db, "seed-user", "--email", "ops@local", "--password", "s3cret", "--cost", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "admin user created: ops@local")

	out, err = run(t, "", "--db", db, "seed-user", "--email", "ops@local", "--password", "other", "--cost", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	_, err = run(t, "", "--db", db, "seed-user", "--email", "ops@local", "--password", "n3w", "--reset", "--cost", "4")
	require.NoError(t, err)

	s, err := document.Open(db)
	require.NoError(t, err)
	u, err := repository.New(s).FindUserByEmail(context.Background(), "ops@local")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("n3w")))
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "", "hash-password", "--cost", "4", "pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("pw")))

	out, err = run(t, "from-stdin\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))

	_, err = run(t, "", "hash-password")
	require.Error(t, err)
}

func TestCardsListAndDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db.jsonv")
	s, err := document.Open(db)
	require.NoError(t, err)
	repo := repository.New(s)
	base := time.Now().Add(-time.Hour).UTC()
	for i, id := range []string{"c_old", "c_new"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		_, err := repo.CreateCard(context.Background(), models.Card{
			ID: id, ChildrenNames: []string{"Ana"}, CreatedAt: ts, UpdatedAt: ts,
		})
		require.NoError(t, err)
	}

	out, err := run(t, "", "--db", db, "cards", "list")
	require.NoError(t, err)
	require.Less(t, strings.Index(out, "c_new"), strings.Index(out, "c_old"), out)

	_, err = run(t, "", "--db", db, "cards", "delete", "c_old")
	require.NoError(t, err)
	_, err = run(t, "", "--db", db, "cards", "delete", "c_old")
	require.ErrorIs(t, err, repository.ErrNotFound)

	out, err = run(t, "", "--db", db, "cards", "list", "-o", "json")
	require.NoError(t, err)
	assert.NotContains(t, out, "c_old")
	assert.Contains(t, out, "c_new")
}

func TestSnapshotRestoreNeedsConfirmation(t *testing.T) {
	_, err := run(t, "", "--db", filepath.Join(t.TempDir(), "db.jsonv"), "snapshot", "restore", "snapshots/x.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}
