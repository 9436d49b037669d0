package intake

import (
	"fmt"
	"strings"
)

// MIME types the intake understands out of the box
const (
	MimePDF  = "application/pdf"
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeGIF  = "image/gif"
)

// Defaults for the configuration surface
const (
	DefaultMaxFileSizeMB = 6.0
	DefaultMaxSlots      = 3

	// MaxResultPairs is the cardinality of the verification service response.
	MaxResultPairs = 10

	// PasswordDelimiter joins the password list in PasswordEvent.Visible.
	PasswordDelimiter = "|~|"

	// InvalidPasswordMessage is the verification message that flags a wrong PDF password.
	InvalidPasswordMessage = "Invalid Password"

	bytesPerMB = 1024 * 1024
)

// DefaultAllowedTypes returns the MIME types accepted when none are configured
func DefaultAllowedTypes() []string {
	return []string{MimePDF, MimePNG, MimeJPEG, MimeGIF}
}

var mimeLabels = map[string]string{
	MimePDF:  "PDF",
	MimePNG:  "PNG",
	MimeJPEG: "JPG",
	MimeGIF:  "GIF",
}

// MimeLabel returns the short human label for a MIME type
func MimeLabel(mimeType string) string {
	if label, ok := mimeLabels[mimeType]; ok {
		return label
	}
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		return strings.ToUpper(sub)
	}
	return mimeType
}

// Configuration holds the upload constraints of the active requirement.
// It is treated as immutable; a requirement change replaces it wholesale.
type Configuration struct {
	AllowedTypes      []string
	MaxFileSizeMB     float64
	MaxSlots          int
	FileSizeErrorText string
	MaxFilesErrorText string
}

// DefaultConfiguration returns the documented defaults
func DefaultConfiguration() Configuration {
	return Configuration{
		AllowedTypes:  DefaultAllowedTypes(),
		MaxFileSizeMB: DefaultMaxFileSizeMB,
		MaxSlots:      DefaultMaxSlots,
	}
}

// MaxFileSizeBytes converts the megabyte limit to bytes
func (c Configuration) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB * bytesPerMB)
}

// WithMaxSlots returns a copy of the configuration with a different slot limit
func (c Configuration) WithMaxSlots(n int) Configuration {
	c.MaxSlots = n
	c.AllowedTypes = append([]string(nil), c.AllowedTypes...)
	return c
}

// Allows reports whether the MIME type is accepted
func (c Configuration) Allows(mimeType string) bool {
	for _, t := range c.AllowedTypes {
		if t == mimeType {
			return true
		}
	}
	return false
}

// AllowedLabels returns the display labels of the allowed types, in configured order
func (c Configuration) AllowedLabels() []string {
	labels := make([]string, 0, len(c.AllowedTypes))
	for _, t := range c.AllowedTypes {
		labels = append(labels, MimeLabel(t))
	}
	return labels
}

// FileTypeInfo returns the caption shown in the upload area, e.g. "PDF, PNG, JPG, GIF (max. 6MB)"
func (c Configuration) FileTypeInfo() string {
	return fmt.Sprintf("%s (max. %sMB)", strings.Join(c.AllowedLabels(), ", "), formatMB(c.MaxFileSizeMB))
}

func (c Configuration) fileSizeMessage() string {
	if c.FileSizeErrorText != "" {
		return c.FileSizeErrorText
	}
	return fmt.Sprintf("File size exceeds the %s MB limit. Please upload a smaller file.", formatMB(c.MaxFileSizeMB))
}

func (c Configuration) maxFilesMessage() string {
	if c.MaxFilesErrorText != "" {
		return c.MaxFilesErrorText
	}
	return fmt.Sprintf("You can only upload up to %d files.", c.MaxSlots)
}

func formatMB(mb float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", mb), "0"), ".")
}

// FileDescriptor is one file from a selection event
type FileDescriptor struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// IsImage reports whether the descriptor carries an image MIME type
func (f FileDescriptor) IsImage() bool {
	return strings.HasPrefix(f.MimeType, "image/")
}

// IsPDF reports whether the descriptor is a PDF
func (f FileDescriptor) IsPDF() bool {
	return f.MimeType == MimePDF
}

// FileSlot is one accepted file plus its derived state
type FileSlot struct {
	Name        string `json:"name"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	RawBytes    []byte `json:"-"`
	Base64      string `json:"-"`
	IsEncrypted bool   `json:"is_encrypted"`
	Password    string `json:"-"`
	Processed   bool   `json:"processed"`
}

// DataURL returns the slot content as a data URL
func (s FileSlot) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", s.MimeType, s.Base64)
}

// DisplaySize returns the size in megabytes with one decimal, e.g. "2.0 MB"
func (s FileSlot) DisplaySize() string {
	return fmt.Sprintf("%.1f MB", float64(s.SizeBytes)/bytesPerMB)
}

// NeedsPassword reports whether the slot blocks submission for lack of a password
func (s FileSlot) NeedsPassword() bool {
	return s.MimeType == MimePDF && s.IsEncrypted && s.Password == ""
}

// ValidationResult is one entry pushed back by the verification service.
// SlotOrdinal is 1-based; when zero the ordinal is the leading digit of Code.
type ValidationResult struct {
	SlotOrdinal int    `json:"ordinal,omitempty"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

// Ordinal resolves the 1-based slot ordinal the result refers to, or 0 if none
func (r ValidationResult) Ordinal() int {
	if r.SlotOrdinal > 0 {
		return r.SlotOrdinal
	}
	if r.Code == "" {
		return 0
	}
	c := r.Code[0]
	if c < '1' || c > '9' {
		return 0
	}
	return int(c - '0')
}

// Status is the verification state of one slot
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
)

// SlotStatus is the merged verification state for one ordinal
type SlotStatus struct {
	Status            Status `json:"status"`
	Message           string `json:"message,omitempty"`
	PasswordIncorrect bool   `json:"password_incorrect,omitempty"`
}

// SlotBinding carries the identifiers a renderer binds to for one slot
type SlotBinding struct {
	ItemID    string `json:"item_id"`
	WarningID string `json:"warning_id"`
}

// BindingFor returns the identifiers for a 1-based ordinal
func BindingFor(ordinal int) SlotBinding {
	return SlotBinding{
		ItemID:    fmt.Sprintf("slot-%d", ordinal-1),
		WarningID: fmt.Sprintf("slot-warning-%d", ordinal-1),
	}
}

// SlotView is the renderer-facing state of one slot
type SlotView struct {
	Ordinal     int         `json:"ordinal"`
	Name        string      `json:"name"`
	MimeType    string      `json:"mime_type"`
	SizeBytes   int64       `json:"size_bytes"`
	DisplaySize string      `json:"display_size"`
	IsEncrypted bool        `json:"is_encrypted"`
	HasPassword bool        `json:"has_password"`
	Processed   bool        `json:"processed"`
	Status      SlotStatus  `json:"status"`
	Binding     SlotBinding `json:"binding"`
}

// AggregateState is derived from the slots, passwords and results; it is never stored on its own
type AggregateState struct {
	Slots             []SlotView         `json:"slots"`
	PerSlotStatus     map[int]SlotStatus `json:"per_slot_status"`
	Submittable       bool               `json:"submittable"`
	SlotCount         int                `json:"slot_count"`
	MaxSlots          int                `json:"max_slots"`
	AddControlVisible bool               `json:"add_control_visible"`
	HeaderText        string             `json:"header_text,omitempty"`
	Requirement       string             `json:"requirement,omitempty"`
	Endpoint          string             `json:"endpoint,omitempty"`
	FileTypeInfo      string             `json:"file_type_info"`
	Warning           string             `json:"warning,omitempty"`
}

// ChangeEvent is emitted after every slot-store mutation
type ChangeEvent struct {
	Files     []FileSlot
	FileNames []string
	FileSizes []int64
}

// PasswordEvent is emitted when the password set changes
type PasswordEvent struct {
	Visible string
}

// Submission is the payload a host forwards to the verification service
type Submission struct {
	Value     string   `json:"value"`
	Files     []string `json:"files"`
	FileNames string   `json:"file_names"`
	FileSizes string   `json:"file_sizes"`
	Endpoint  string   `json:"endpoint"`
	Passwords string   `json:"passwords"`
}
