package serialutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "", expect: ""},
		{input: "   ", expect: ""},
		{input: "0", expect: "0"},
		{input: "000", expect: "0"},
		{input: "00123", expect: "123"},
		{input: "123", expect: "123"},
		{input: " 007 ", expect: "7"},
		{input: "10", expect: "10"},
		{input: "0A12", expect: "A12"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, Normalize(test.input), "input: %q", test.input)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "0", "000", "00123", " 007 ", "abc", "0A12"}
	for _, s := range inputs {
		once := Normalize(s)
		require.Equal(t, once, Normalize(once))
	}
}

func TestEqual(t *testing.T) {
	require.True(t, Equal("007", "7"))
	require.True(t, Equal("7", "07"))
	require.False(t, Equal("7", "8"))
	require.False(t, Equal("", "0"))
}
