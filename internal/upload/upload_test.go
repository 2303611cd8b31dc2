package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.png", true},
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.gif", true},
		{"PHOTO.PNG", true},
		{"archive.tar.gif", true},
		{"x.exe", false},
		{"script.php", false},
		{"noextension", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.filename))
		})
	}
}

func TestSave(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("fake png bytes"), "avatar.png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(name, "avatar_"), "stored name keeps the sanitized stem: %s", name)
	assert.True(t, strings.HasSuffix(name, ".png"), "stored name keeps the extension: %s", name)

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))
}

func TestSave_UnsupportedType(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(strings.NewReader("MZ"), "x.exe")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing should be written for a rejected file")
}

func TestSave_SanitizesPathTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(strings.NewReader("data"), "../../etc/passwd.png")
	require.NoError(t, err)

	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")
	assert.FileExists(t, filepath.Join(store.Dir(), name))
}

func TestSave_SameNameDoesNotOverwrite(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	first, err := store.Save(strings.NewReader("first"), "me.jpg")
	require.NoError(t, err)
	second, err := store.Save(strings.NewReader("second"), "me.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "colliding names get distinct stored files")

	data, err := os.ReadFile(filepath.Join(store.Dir(), first))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data), "earlier upload must survive")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "my_photo", sanitize("my photo"))
	assert.Equal(t, "a_b_c", sanitize("a/b\\c"))
	assert.Equal(t, "image", sanitize("...."))
}
