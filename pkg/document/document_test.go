package document

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"valid", "52998224725", true},
		{"valid other", "11144477735", true},
		{"valid formatted", "529.982.247-25", true},
		{"mutated first check digit", "52998224735", false},
		{"mutated second check digit", "52998224726", false},
		{"all same digits", "11111111111", false},
		{"too short", "5299822472", false},
		{"too long", "529982247251", false},
		{"empty", "", false},
		{"letters only", "abcdefghijk", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidateCPF(tt.doc))
		})
	}
}

func TestValidateCNPJ(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{"valid", "11222333000181", true},
		{"valid with leading zeros", "00000000000191", true},
		{"valid other", "34028316000103", true},
		{"valid formatted", "11.222.333/0001-81", true},
		{"mutated check digit", "11222333000180", false},
		{"all same digits", "11111111111111", false},
		{"too short", "1122233300018", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ValidateCNPJ(tt.doc))
		})
	}
}

func TestValidateDispatch(t *testing.T) {
	require.True(t, Validate("529.982.247-25", PersonTypeIndividual))
	require.False(t, Validate("11222333000181", PersonTypeIndividual))

	require.True(t, Validate("11222333000181", PersonTypeOrganization))
	require.False(t, Validate("52998224725", PersonTypeOrganization))

	// Unknown person types fall back to the organization validator.
	require.True(t, Validate("11222333000181", ""))
	require.False(t, Validate("52998224725", "SOMETHING_ELSE"))
}
