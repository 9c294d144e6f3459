package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/starsearch/internal/apperr"
)

func nullLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestDirStore_PutGet(t *testing.T) {
	root := filepath.Join(t.TempDir(), "exports", "nested")
	st := NewDirStore(root, nullLogger())

	loc, err := st.Put(context.Background(), "abc.ndjson", []byte("{}\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "abc.ndjson"), loc)

	info, err := os.Stat(loc)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := st.Get(context.Background(), "abc.ndjson")
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))
}

func TestDirStore_GetMissing(t *testing.T) {
	_, err := NewDirStore(t.TempDir(), nullLogger()).Get(context.Background(), "nope.ndjson")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDirStore_RejectsEscapingNames(t *testing.T) {
	st := NewDirStore(t.TempDir(), nullLogger())
	_, err := st.Put(context.Background(), "../outside.ndjson", []byte("x"))
	assert.ErrorContains(t, err, "escapes")
}

func TestDirStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirStore(t.TempDir(), nullLogger()).Put(ctx, "a", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
