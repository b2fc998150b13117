package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bimmerbailey/aura/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "aura.missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "aura.companies", []byte(`[{"id":1}]`)))
	got, err := s.Get(ctx, "aura.companies")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(got))

	require.NoError(t, s.Set(ctx, "aura.companies", []byte(`[]`)))
	got, err = s.Get(ctx, "aura.companies")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "aura.companies"))
	_, err = s.Get(ctx, "aura.companies")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "aura.companies"), "deleting a missing key is not an error")
	assert.Error(t, s.Set(ctx, "", []byte("x")))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	in := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestFile(t *testing.T) {
	s, err := OpenFile(t.TempDir(), testLogger())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileRejectsPathKeys(t *testing.T) {
	s, err := OpenFile(t.TempDir(), testLogger())
	require.NoError(t, err)

	for _, key := range []string{"../escape", "a/b", `a\b`} {
		assert.Error(t, s.Set(context.Background(), key, []byte("x")), key)
	}
}

func TestFileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "aura.reports", []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "aura.reports.json", entries[0].Name())
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "aura.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "aura.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "aura.selected_company", []byte("2")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "aura.selected_company")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("AURA_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("AURA_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestWatch(t *testing.T) {
	file, err := OpenFile(t.TempDir(), testLogger())
	require.NoError(t, err)

	stores := map[string]interface {
		Store
		Watcher
	}{
		"memory": NewMemory(),
		"file":   file,
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			changes, err := s.Watch(ctx, "aura.companies")
			require.NoError(t, err)

			require.NoError(t, s.Set(ctx, "aura.other", []byte("1")))
			require.NoError(t, s.Set(ctx, "aura.companies", []byte("[]")))

			select {
			case <-changes:
			case <-time.After(2 * time.Second):
				t.Fatal("no change notification")
			}

			cancel()
			assert.Eventually(t, func() bool {
				select {
				case _, ok := <-changes:
					return !ok
				default:
					return false
				}
			}, 2*time.Second, 10*time.Millisecond, "channel should close after cancel")
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StorageConfig{Backend: "memory"}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = New(ctx, config.StorageConfig{Backend: "file", Dir: t.TempDir()}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	s, err = New(ctx, config.StorageConfig{Backend: "SQLite", Path: filepath.Join(t.TempDir(), "a.db")}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	s.Close()

	_, err = New(ctx, config.StorageConfig{Backend: "postgres"}, testLogger())
	assert.ErrorContains(t, err, "dsn")

	_, err = New(ctx, config.StorageConfig{Backend: "localstorage"}, testLogger())
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = New(ctx, config.StorageConfig{Backend: "memory"}, nil)
	assert.Error(t, err)
}
