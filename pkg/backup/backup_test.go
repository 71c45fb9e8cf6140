package backup

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Write(ctx context.Context, key string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) Read(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	data := m.objects[key]
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func TestRunSQLiteBackup(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.db")
	require.NoError(t, os.WriteFile(src, []byte("sqlite-data"), 0o644))

	backupDir := filepath.Join(dir, "backups")
	s := NewScheduler(Config{DBDriver: "sqlite", DSN: src, Path: backupDir})
	require.NoError(t, s.Run(context.Background()))

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(backupDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, "sqlite-data", string(data))
}

func TestRunUploadsOffsite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "app.db")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	store := &memStore{}
	s := NewScheduler(Config{DBDriver: "sqlite", DSN: src, Path: filepath.Join(dir, "backups")}).
		WithOffsiteStore(store)
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, store.objects, 1)
	for _, data := range store.objects {
		assert.Equal(t, "payload", string(data))
	}
}

func TestRunUnsupportedDriver(t *testing.T) {
	s := NewScheduler(Config{DBDriver: "oracle", Path: t.TempDir()})
	assert.Error(t, s.Run(context.Background()))
}

func TestStartInvalidSchedule(t *testing.T) {
	s := NewScheduler(Config{Schedule: "not-a-cron", DBDriver: "sqlite", Path: t.TempDir()})
	assert.Error(t, s.Start())
}
