package fsaccess

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/doc-intake/internal/intake"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestNewLoader_EmptyDirectory(t *testing.T) {
	_, err := NewLoader("", 0)
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "slip.pdf", []byte("%PDF-1.4"))

	l, err := NewLoader(dir, 0)
	require.NoError(t, err)

	f, err := l.Load("slip.pdf")
	require.NoError(t, err)
	assert.Equal(t, "slip.pdf", f.Name)
	assert.Equal(t, intake.MimePDF, f.MimeType)
	assert.Equal(t, int64(8), f.Size)
	assert.Equal(t, []byte("%PDF-1.4"), f.Data)

	abs := filepath.Join(dir, "slip.pdf")
	f, err = l.Load(abs)
	require.NoError(t, err)
	assert.Equal(t, "slip.pdf", f.Name)
}

func TestLoader_ReadLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.pdf", make([]byte, 64))

	l, err := NewLoader(dir, 16)
	require.NoError(t, err)

	f, err := l.Load("big.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(64), f.Size)
	assert.Nil(t, f.Data)
}

func TestLoader_RejectsOutsidePaths(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	require.NoError(t, os.Mkdir(dir, 0o755))
	outside := writeFile(t, root, "secret.pdf", []byte("x"))

	l, err := NewLoader(dir, 0)
	require.NoError(t, err)

	tests := []string{
		"../secret.pdf",
		outside,
		filepath.Join(dir, "..", "secret.pdf"),
	}
	for _, p := range tests {
		t.Run(p, func(t *testing.T) {
			_, err := l.Load(p)
			assert.ErrorIs(t, err, ErrOutsideDirectory)
		})
	}

	_, err = l.Load("")
	assert.Error(t, err)
}

func TestLoader_RejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	root := t.TempDir()
	dir := filepath.Join(root, "uploads")
	require.NoError(t, os.Mkdir(dir, 0o755))
	target := writeFile(t, root, "secret.pdf", []byte("x"))
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.pdf")))

	l, err := NewLoader(dir, 0)
	require.NoError(t, err)

	_, err = l.Load("link.pdf")
	assert.ErrorIs(t, err, ErrOutsideDirectory)
}

func TestLoader_LoadAllAndList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.png", []byte("png"))
	writeFile(t, dir, "a.pdf", []byte("pdf"))
	writeFile(t, dir, "notes.txt", []byte("txt"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	l, err := NewLoader(dir, 0)
	require.NoError(t, err)

	names, err := l.List(intake.DefaultAllowedTypes())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.png"}, names)

	files, err := l.LoadAll([]string{"b.png", "a.pdf"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "b.png", files[0].Name)

	_, err = l.LoadAll([]string{"a.pdf", "missing.pdf"})
	assert.Error(t, err)

	_, err = l.Load("sub.pdf")
	assert.Error(t, err)
}

func TestLoader_Encrypted(t *testing.T) {
	dir := t.TempDir()
	filler := make([]byte, 8192)
	locked := append(append([]byte("%PDF-1.7\n"), filler...), []byte("trailer << /Encrypt 4 0 R >>\n%%EOF")...)
	writeFile(t, dir, "locked.pdf", locked)
	writeFile(t, dir, "open.pdf", []byte("%PDF-1.4\ntrailer << /Root 1 0 R >>"))
	writeFile(t, dir, "scan.png", []byte("/Encrypt 1 0 R"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	// the read limit does not apply to the window scan
	l, err := NewLoader(dir, 16)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    bool
		wantErr bool
	}{
		{name: "encrypted over read limit", path: "locked.pdf", want: true},
		{name: "plain pdf", path: "open.pdf"},
		{name: "image never encrypted", path: "scan.png"},
		{name: "directory", path: "folder.pdf", wantErr: true},
		{name: "missing", path: "missing.pdf", wantErr: true},
		{name: "outside", path: "../escape.pdf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Encrypted(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"a.PDF":    intake.MimePDF,
		"b.jpg":    intake.MimeJPEG,
		"c.jpeg":   intake.MimeJPEG,
		"d.webp":   "image/webp",
		"e":        "application/octet-stream",
		"f.tiff":   "image/tiff",
		"g.random": "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, MimeType(name), name)
	}
}
