package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContent(t *testing.T, path, name string) {
	t.Helper()
	data := "user:\n  full_name: " + name + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestStoreReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	writeContent(t, path, "First")

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "First", s.Get().User.FullName)

	require.NoError(t, os.WriteFile(path, []byte("user: [broken"), 0o644))
	assert.Error(t, s.Reload())
	assert.Equal(t, "First", s.Get().User.FullName)

	writeContent(t, path, "Second")
	require.NoError(t, s.Reload())
	assert.Equal(t, "Second", s.Get().User.FullName)
}

func TestStoreBuiltIn(t *testing.T) {
	s, err := NewStore("", nil)
	require.NoError(t, err)
	assert.NoError(t, s.Reload())
	assert.NotEmpty(t, s.Get().Experience)
}

func TestStoreWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	writeContent(t, path, "Before")

	s, err := NewStore(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeContent(t, path, "After")

	assert.Eventually(t, func() bool {
		return s.Get().User.FullName == "After"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
