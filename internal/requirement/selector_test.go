package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelector_Placeholder(t *testing.T) {
	s := NewSelector(nil, nil, nil)

	req, selected := s.Current()
	assert.False(t, selected)
	assert.Equal(t, PlaceholderLabel, req.Label)
	assert.Equal(t, PlaceholderLimit, req.SlotLimit)
	assert.Equal(t, DefaultEndpoints()["payslip"], req.Endpoint)
	assert.Empty(t, s.Options())
}

func TestSelector_Select(t *testing.T) {
	s := NewSelector(MustParseOptions("payslip,Pay Slip,3,cor,Certificate of Registration,1"), nil, nil)

	req, ok := s.Select("payslip")
	require.True(t, ok)
	assert.Equal(t, Requirement{
		Key:       "payslip",
		Label:     "Pay Slip",
		SlotLimit: 3,
		Endpoint:  DefaultEndpoints()["payslip"],
	}, req)

	// keys without a verification endpoint are still selectable
	req, ok = s.Select("cor")
	require.True(t, ok)
	assert.Empty(t, req.Endpoint)

	before, _ := s.Current()
	_, ok = s.Select("unknown")
	assert.False(t, ok)
	after, _ := s.Current()
	assert.Equal(t, before, after)
}

func TestSelector_CustomEndpoints(t *testing.T) {
	endpoints := Endpoints{"payslip": "https://verify.example.test/payslip"}
	s := NewSelector(MustParseOptions("payslip,Pay Slip,3"), endpoints, nil)

	req, ok := s.Select("payslip")
	require.True(t, ok)
	assert.Equal(t, "https://verify.example.test/payslip", req.Endpoint)
}

func TestSelector_ApplyEmployment(t *testing.T) {
	tests := []struct {
		status       string
		wantKeys     []string
		wantEndpoint string
	}{
		{StatusSelfEmployed, []string{"itr", "bank", "credit", "loan"}, "itr"},
		{StatusEmployedPrivate, []string{"payslip", "coe", "bank", "credit", "loan"}, "payslip"},
		{StatusEmployedGovernment, []string{"payslip", "coe", "bank", "credit", "loan"}, "payslip"},
		{"Retired", []string{"itr", "bank", "credit", "loan"}, "payslip"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			s := NewSelector(nil, nil, nil)
			req, err := s.ApplyEmployment(tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, s.Options().Keys())
			assert.Equal(t, DefaultEndpoints()[tt.wantEndpoint], req.Endpoint)
		})
	}
}

func TestSelector_ApplyEmploymentKeepsSurvivingSelection(t *testing.T) {
	s := NewSelector(nil, nil, nil)
	_, err := s.ApplyEmployment(StatusEmployedPrivate)
	require.NoError(t, err)
	_, ok := s.Select("bank")
	require.True(t, ok)

	req, err := s.ApplyEmployment(StatusSelfEmployed)
	require.NoError(t, err)
	_, selected := s.Current()
	assert.True(t, selected)
	assert.Equal(t, "bank", req.Key)
	assert.Equal(t, DefaultEndpoints()["bank"], req.Endpoint)
}

func TestSelector_BlacklistAppliesToReplacementTables(t *testing.T) {
	s := NewSelector(nil, nil, nil, "credit", "loan")
	_, err := s.ApplyEmployment(StatusSelfEmployed)
	require.NoError(t, err)
	assert.Equal(t, []string{"itr", "bank"}, s.Options().Keys())
}

func TestSelector_MalformedPolicy(t *testing.T) {
	policy := Policy{CategoryOther: {Options: "a,b"}}
	s := NewSelector(nil, nil, policy)

	_, err := s.ApplyEmployment("anything")
	assert.ErrorIs(t, err, ErrMalformedOptions)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategorySelfEmployed, CategoryFor(StatusSelfEmployed))
	assert.Equal(t, CategoryEmployed, CategoryFor(StatusEmployedGovernment))
	assert.Equal(t, CategoryOther, CategoryFor(""))
	assert.Equal(t, "employed", CategoryEmployed.String())
}
