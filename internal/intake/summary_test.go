package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryMerger_Merge(t *testing.T) {
	m := NewSummaryMerger()

	tests := []struct {
		name      string
		results   []ValidationResult
		slotCount int
		want      map[int]SlotStatus
	}{
		{
			name:      "no_results_all_pass",
			slotCount: 2,
			want: map[int]SlotStatus{
				1: {Status: StatusPass},
				2: {Status: StatusPass},
			},
		},
		{
			name:      "ordinal_from_code",
			results:   []ValidationResult{{Code: "2C", Message: "Unable to read document"}},
			slotCount: 3,
			want: map[int]SlotStatus{
				1: {Status: StatusPass},
				2: {Status: StatusWarning, Message: "Unable to read document"},
				3: {Status: StatusPass},
			},
		},
		{
			name:      "invalid_password_flag",
			results:   []ValidationResult{{Code: "1X", Message: InvalidPasswordMessage}},
			slotCount: 1,
			want: map[int]SlotStatus{
				1: {Status: StatusWarning, Message: InvalidPasswordMessage, PasswordIncorrect: true},
			},
		},
		{
			name:      "explicit_ordinal_wins",
			results:   []ValidationResult{{SlotOrdinal: 2, Code: "1E", Message: "Document has no pages"}},
			slotCount: 2,
			want: map[int]SlotStatus{
				1: {Status: StatusPass},
				2: {Status: StatusWarning, Message: "Document has no pages"},
			},
		},
		{
			name: "empty_codes_ignored",
			results: []ValidationResult{
				{Code: "", Message: "ignored"},
				{Code: "", Message: ""},
			},
			slotCount: 1,
			want:      map[int]SlotStatus{1: {Status: StatusPass}},
		},
		{
			name:      "ordinals_beyond_slots_dropped",
			results:   []ValidationResult{{Code: "4C", Message: "x"}},
			slotCount: 3,
			want: map[int]SlotStatus{
				1: {Status: StatusPass},
				2: {Status: StatusPass},
				3: {Status: StatusPass},
			},
		},
		{
			name: "first_match_wins",
			results: []ValidationResult{
				{Code: "1C", Message: "first"},
				{Code: "1X", Message: InvalidPasswordMessage},
			},
			slotCount: 1,
			want:      map[int]SlotStatus{1: {Status: StatusWarning, Message: "first"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Merge(tt.results, tt.slotCount))
		})
	}
}

func TestSummaryMerger_Idempotent(t *testing.T) {
	m := NewSummaryMerger()
	results := []ValidationResult{{Code: "1X", Message: InvalidPasswordMessage}, {Code: "3C", Message: "Unable to read document"}}

	first := m.Merge(results, 3)
	second := m.Merge(results, 3)
	assert.Equal(t, first, second)

	// a later partial result set replaces, never patches
	partial := m.Merge(results[1:], 3)
	assert.Equal(t, StatusPass, partial[1].Status)
	assert.Equal(t, StatusWarning, partial[3].Status)
}

func TestAnyWarning(t *testing.T) {
	assert.False(t, AnyWarning(nil))
	assert.False(t, AnyWarning(map[int]SlotStatus{1: {Status: StatusPass}}))
	assert.True(t, AnyWarning(map[int]SlotStatus{1: {Status: StatusPass}, 2: {Status: StatusWarning}}))
}

func TestValidationResult_Ordinal(t *testing.T) {
	assert.Equal(t, 1, ValidationResult{Code: "1X"}.Ordinal())
	assert.Equal(t, 9, ValidationResult{Code: "9C"}.Ordinal())
	assert.Equal(t, 0, ValidationResult{Code: "X1"}.Ordinal())
	assert.Equal(t, 0, ValidationResult{Code: "0C"}.Ordinal())
	assert.Equal(t, 0, ValidationResult{}.Ordinal())
	assert.Equal(t, 4, ValidationResult{SlotOrdinal: 4, Code: "1C"}.Ordinal())
}

func TestBindingFor(t *testing.T) {
	b := BindingFor(1)
	assert.Equal(t, "slot-0", b.ItemID)
	assert.Equal(t, "slot-warning-0", b.WarningID)
}

func TestConfiguration_FileTypeInfo(t *testing.T) {
	assert.Equal(t, "PDF, PNG, JPG, GIF (max. 6MB)", DefaultConfiguration().FileTypeInfo())

	cfg := Configuration{AllowedTypes: []string{MimePDF, "image/webp"}, MaxFileSizeMB: 2.5}
	assert.Equal(t, "PDF, WEBP (max. 2.5MB)", cfg.FileTypeInfo())
}
