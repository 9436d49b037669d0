package intake

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionDetector_Detect(t *testing.T) {
	filler := strings.Repeat("x", 10000)

	tests := []struct {
		name string
		data string
		want bool
	}{
		{"marker_in_trailer", "%PDF-1.7\n" + filler + "trailer\n<< /Root 1 0 R /Encrypt 12 0 R >>\n%%EOF", true},
		{"marker_in_head", "%PDF-1.7\n<< /Encrypt 5 0 R >>\n" + filler, true},
		{"no_marker", "%PDF-1.7\n" + filler + "trailer\n<< /Root 1 0 R >>\n%%EOF", false},
		{"marker_outside_windows", "%PDF-1.7\n" + filler + "/Encrypt 3 0 R" + filler, false},
		{"direct_dictionary_not_matched", "%PDF-1.7\n/Encrypt << /Filter /Standard >>", false},
		{"short_file", "/Encrypt 1 0 R", true},
		{"empty", "", false},
	}

	d := NewEncryptionDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect([]byte(tt.data)))

			got, err := d.DetectReader(bytes.NewReader([]byte(tt.data)), int64(len(tt.data)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncryptionDetector_DetectFile(t *testing.T) {
	d := NewEncryptionDetector()
	data := []byte("%PDF-1.4\ntrailer << /Encrypt 9 0 R >>")

	assert.True(t, d.DetectFile(FileDescriptor{Name: "a.pdf", MimeType: MimePDF, Data: data}))
	assert.False(t, d.DetectFile(FileDescriptor{Name: "a.png", MimeType: MimePNG, Data: data}))
}

// failingReaderAt fails every read at or beyond failAt
type failingReaderAt struct {
	data   []byte
	failAt int64
}

func (r failingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.failAt {
		return 0, errors.New("device error")
	}
	return bytes.NewReader(r.data).ReadAt(p, off)
}

func TestEncryptionDetector_DetectReaderFailure(t *testing.T) {
	d := NewEncryptionDetector()
	data := []byte("%PDF-1.7\n" + strings.Repeat("x", 3*EncryptionWindow))

	tests := []struct {
		name   string
		failAt int64
	}{
		{"head", 0},
		{"tail", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.DetectReader(failingReaderAt{data: data, failAt: tt.failAt}, int64(len(data)))
			require.Error(t, err)
			assert.False(t, got)
			assert.ErrorIs(t, err, ErrDecodeFailure)
			assert.NotEmpty(t, UserMessage(err))
		})
	}
}

func TestEncryptionDetector_DetectReaderShortRead(t *testing.T) {
	d := NewEncryptionDetector()
	data := []byte("%PDF-1.4\ntrailer << /Encrypt 2 0 R >>")

	// a reader shorter than the claimed size ends in io.EOF, which is not a failure
	got, err := d.DetectReader(bytes.NewReader(data), int64(len(data))+10)
	require.NoError(t, err)
	assert.True(t, got)
}
