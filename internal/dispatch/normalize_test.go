package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMSISDN(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trunk prefix with separators", "0897-3914-602", "628973914602"},
		{"already normalized", "628973914602", "628973914602"},
		{"bare subscriber number", "8973914602", "628973914602"},
		{"spaces and plus sign", "+62 812 3456 789", "628123456789"},
		{"trunk zero plain", "08123456789", "628123456789"},
		{"parentheses", "(0812) 3456-789", "628123456789"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeMSISDN(tc.in, DefaultCountryPrefix)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeMSISDN_Idempotent(t *testing.T) {
	inputs := []string{
		"0897-3914-602",
		"628973914602",
		"8973914602",
		"+62 812 3456 789",
		"0062",
		"620812",
	}
	for _, in := range inputs {
		once, err := NormalizeMSISDN(in, DefaultCountryPrefix)
		require.NoError(t, err)
		twice, err := NormalizeMSISDN(once, DefaultCountryPrefix)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalize(normalize(%q))", in)
	}
}

func TestNormalizeMSISDN_NoDigits(t *testing.T) {
	_, err := NormalizeMSISDN("not a number", DefaultCountryPrefix)
	assert.ErrorIs(t, err, ErrNoDigits)

	_, err = NormalizeMSISDN("", DefaultCountryPrefix)
	assert.ErrorIs(t, err, ErrNoDigits)
}
