package fsutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/doc.svg", []byte("old"), 0o600))

	require.NoError(t, WriteFileAtomic(fs, "out/doc.svg", []byte("new content"), 0o640))

	data, err := afero.ReadFile(fs, "out/doc.svg")
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))

	info, err := fs.Stat("out/doc.svg")
	require.NoError(t, err)
	assert.Equal(t, 0o640, int(info.Mode().Perm()))

	entries, err := afero.ReadDir(fs, "out")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file left behind")
	assert.Equal(t, "doc.svg", entries[0].Name())
}

func TestWriteFileAtomic_FailureKeepsOriginal(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(base, "doc.svg", []byte("old"), 0o644))
	fs := afero.NewReadOnlyFs(base)

	err := WriteFileAtomic(fs, "doc.svg", []byte("new"), 0o644)
	require.Error(t, err)

	data, err := afero.ReadFile(base, "doc.svg")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
