// Package fsaccess loads upload candidates from a directory the host has
// granted access to, refusing anything that resolves outside it.
package fsaccess

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/doc-intake/internal/intake"
)

// ErrOutsideDirectory is returned for paths that escape the configured directory
var ErrOutsideDirectory = errors.New("path is outside configured directory")

// extension types not every platform mime table carries
var fallbackTypes = map[string]string{
	".pdf":  intake.MimePDF,
	".png":  intake.MimePNG,
	".jpg":  intake.MimeJPEG,
	".jpeg": intake.MimeJPEG,
	".gif":  intake.MimeGIF,
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// Loader reads files from a single directory tree
type Loader struct {
	dir       string
	readLimit int64
	detector  *intake.EncryptionDetector
}

// NewLoader creates a loader rooted at dir. Files larger than readLimit are
// described but not read, so the validator can reject them by size.
func NewLoader(dir string, readLimit int64) (*Loader, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	return &Loader{
		dir:       abs,
		readLimit: readLimit,
		detector:  intake.NewEncryptionDetector(),
	}, nil
}

// Directory returns the absolute configured directory
func (l *Loader) Directory() string {
	return l.dir
}

// Resolve turns a relative or absolute path into an absolute path inside the directory.
// Symlinks are followed before the check.
func (l *Loader) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}
	clean := filepath.Clean(path)

	realDir := l.dir
	if resolved, err := filepath.EvalSymlinks(l.dir); err == nil {
		realDir = resolved
	}
	realPath := clean
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		realPath = resolved
	}

	if !within(clean, l.dir, realDir) || !within(realPath, l.dir, realDir) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}
	return clean, nil
}

func within(path string, dirs ...string) bool {
	for _, d := range dirs {
		if path == d || strings.HasPrefix(path, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Load describes and reads one file
func (l *Loader) Load(path string) (intake.FileDescriptor, error) {
	abs, err := l.Resolve(path)
	if err != nil {
		return intake.FileDescriptor{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return intake.FileDescriptor{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return intake.FileDescriptor{}, fmt.Errorf("path is a directory: %s", path)
	}

	f := intake.FileDescriptor{
		Name:     filepath.Base(abs),
		MimeType: MimeType(abs),
		Size:     info.Size(),
	}
	if l.readLimit > 0 && info.Size() > l.readLimit {
		return f, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return intake.FileDescriptor{}, fmt.Errorf("failed to read file: %w", err)
	}
	f.Data = data
	return f, nil
}

// Encrypted reports whether the PDF at path carries the encryption marker.
// Only the head and tail windows are read, so files over the read limit can
// be checked too. Files that are not PDFs are never encrypted.
func (l *Loader) Encrypted(path string) (bool, error) {
	abs, err := l.Resolve(path)
	if err != nil {
		return false, err
	}
	if MimeType(abs) != intake.MimePDF {
		return false, nil
	}

	f, err := os.Open(abs)
	if err != nil {
		return false, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("path is a directory: %s", path)
	}

	encrypted, err := l.detector.DetectReader(f, info.Size())
	if err != nil {
		var ie *intake.Error
		if errors.As(err, &ie) {
			ie.WithFile(filepath.Base(abs))
		}
		return false, err
	}
	return encrypted, nil
}

// LoadAll loads every path, stopping at the first failure
func (l *Loader) LoadAll(paths []string) ([]intake.FileDescriptor, error) {
	files := make([]intake.FileDescriptor, 0, len(paths))
	for _, p := range paths {
		f, err := l.Load(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// List returns the names of regular files in the directory whose type is in allowed
func (l *Loader) List(allowed []string) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		mt := MimeType(e.Name())
		for _, a := range allowed {
			if a == mt {
				names = append(names, e.Name())
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// MimeType derives a MIME type from the file extension, without parameters
func MimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := fallbackTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
		return t
	}
	return "application/octet-stream"
}
