package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		blacklist []string
		want      Table
		wantErr   bool
	}{
		{
			name: "two_options",
			raw:  "payslip,Pay Slip/s (1 month),3,coe,Certificate of Employment,1",
			want: Table{
				{Key: "payslip", Label: "Pay Slip/s (1 month)", Limit: 3},
				{Key: "coe", Label: "Certificate of Employment", Limit: 1},
			},
		},
		{
			name: "blank",
			raw:  "  ",
			want: Table{},
		},
		{
			name:      "blacklisted_keys_dropped",
			raw:       "itr,ITR,3,bank,Bank Statements,3,loan,Loan,1",
			blacklist: []string{"bank", "", "loan"},
			want:      Table{{Key: "itr", Label: "ITR", Limit: 3}},
		},
		{
			name: "whitespace_trimmed",
			raw:  " util , Utility Bill , 2 ",
			want: Table{{Key: "util", Label: "Utility Bill", Limit: 2}},
		},
		{
			name:    "bad_arity",
			raw:     "payslip,Pay Slip,3,coe",
			wantErr: true,
		},
		{
			name:    "non_numeric_limit",
			raw:     "payslip,Pay Slip,three",
			wantErr: true,
		},
		{
			name:    "zero_limit",
			raw:     "payslip,Pay Slip,0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOptions(tt.raw, tt.blacklist...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedOptions)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTable_StringRoundTrip(t *testing.T) {
	raw := "payslip,Pay Slip/s (1 month),3,coe,Certificate of Employment,1"
	table := MustParseOptions(raw)

	assert.Equal(t, raw, table.String())

	opt, ok := table.Lookup("coe")
	require.True(t, ok)
	assert.Equal(t, 1, opt.Limit)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)
}

func TestMustParseOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseOptions("a,b") })
}
