package segment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "file.bin")

	w, err := Create(path)
	require.NoError(t, err)
	w.Uint64(42)
	w.String("привет")
	w.Uint32(7)
	w.Raw([]byte{1, 2, 3})
	assert.Equal(t, int64(8+8+len("привет")+4+3), w.Size())
	require.NoError(t, w.Commit())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint64(42), r.Uint64())
	assert.Equal(t, "привет", r.String())
	assert.Equal(t, uint32(7), r.Uint32())
	assert.Equal(t, []byte{1, 2, 3}, r.Raw(3))
	require.NoError(t, r.Err())
	assert.Equal(t, int64(0), r.Remaining())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.bin"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIndexNotFound))
}

func TestTruncatedFileIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 0, 0}, 0644))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, uint64(0), r.Uint64())
	assert.True(t, errors.Is(r.Err(), apperrors.ErrCorruptIndex))
}

func TestHugeLengthRejectedWithoutAllocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	w, err := Create(path)
	require.NoError(t, err)
	w.Uint64(1 << 40)
	require.NoError(t, w.Commit())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "", r.String())
	assert.True(t, errors.Is(r.Err(), apperrors.ErrCorruptIndex))
}

func TestFits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.bin")
	w, err := Create(path)
	require.NoError(t, err)
	for i := uint32(0); i < 4; i++ {
		w.Uint32(i)
	}
	require.NoError(t, w.Commit())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Fits(4, 4))
	assert.False(t, r.Fits(5, 4))
	assert.Error(t, r.Err())
}

func TestAbortLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aborted.bin")
	w, err := Create(path)
	require.NoError(t, err)
	w.Uint64(1)
	w.Abort()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
