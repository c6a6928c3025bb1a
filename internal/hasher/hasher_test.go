package hasher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

func TestSum_KnownDigest(t *testing.T) {
	// sha256("hello")
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		Sum([]byte("hello")))
}

func TestSum_DeterministicAndSensitive(t *testing.T) {
	a := Sum([]byte("document body"))
	b := Sum([]byte("document body"))
	c := Sum([]byte("document bodz"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, Size)
	assert.True(t, Valid(a))
}

func TestHashReader_MatchesSum(t *testing.T) {
	content := strings.Repeat("x", 100_000)

	got, err := HashReader(strings.NewReader(content))

	require.NoError(t, err)
	assert.Equal(t, Sum([]byte(content)), got)
}

func TestHashFile_MatchesSum(t *testing.T) {
	// Given: a file on disk
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("h1"), 0o644))

	// When: hashing it
	got, err := HashFile(path)

	// Then: same as hashing the bytes
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte("h1")), got)
}

func TestHashFile_LargerThanSniff(t *testing.T) {
	// Given: a file longer than the sniffed head
	content := strings.Repeat("abcdefgh", SniffSize)
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When: hashing it
	got, err := HashFile(path)

	// Then: the head and the rest are both part of the digest
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte(content)), got)
}

func TestHashFile_Binary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		binary  bool
	}{
		{"nul in head", "abc\x00def", true},
		{"nul after head", strings.Repeat("a", SniffSize) + "\x00", false},
		{"empty file", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, err := HashFile(path)

			if tt.binary {
				assert.ErrorIs(t, err, ErrBinary)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Sum([]byte(tt.content)), got)
		})
	}
}

func TestHashFile_MissingFileIsIOError(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "gone.txt"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, docerrors.ErrFileNotFound))
	assert.Equal(t, docerrors.CategoryIO, docerrors.GetCategory(err))
}

func TestHashFile_DirectoryIsIOError(t *testing.T) {
	_, err := HashFile(t.TempDir())

	require.Error(t, err)
	assert.Equal(t, docerrors.CategoryIO, docerrors.GetCategory(err))
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"digest", Sum(nil), true},
		{"empty", "", false},
		{"short", "abc", false},
		{"uppercase", strings.ToUpper(Sum(nil)), false},
		{"non-hex", strings.Repeat("g", Size), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.in))
		})
	}
}
