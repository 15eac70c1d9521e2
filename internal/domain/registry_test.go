package domain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry([]Entry{
		{URL: "http://evil.example.com/malware.exe", Active: true, Threat: Threat{Category: "malware_download"}},
		{URL: "phish.example.org", Active: true, Threat: Threat{Category: "phishing"}},
		{URL: "HTTP://PHISH.example.org./", Active: true, Threat: Threat{Category: "phishing"}},
		{URL: "inactive.example.net", Active: false},
		{URL: "localhost", Active: true},
		{URL: "mailto://x", Active: true},
	})

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, reg.Skipped)
	assert.Len(t, reg.Prefixes, 2)
	assert.True(t, slices.IsSorted(reg.Prefixes))
	assert.False(t, reg.UpdatedAt.IsZero())
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry([]Entry{
		{URL: "phish.example.org", Active: true, Threat: Threat{Category: "phishing", Source: "local"}},
		{URL: "inactive.example.net", Active: false},
	})

	got := reg.Lookup([]string{"a.phish.example.org/", "phish.example.org/", "inactive.example.net/"})
	require.Len(t, got, 3)

	assert.Equal(t, "a.phish.example.org/", got[0].Expression)
	assert.False(t, got[0].Listed)
	assert.Nil(t, got[0].Threat)

	assert.True(t, got[1].Listed)
	require.NotNil(t, got[1].Threat)
	assert.Equal(t, "phishing", got[1].Threat.Category)
	assert.Equal(t, "local", got[1].Threat.Source)

	assert.False(t, got[2].Listed)
}

func TestRegistry_LookupThroughSuffix(t *testing.T) {
	reg := NewRegistry([]Entry{{URL: "phish.example.org", Active: true}})
	gen, err := GenerateExpressions("https://a.b.phish.example.org/login/index.php")
	require.NoError(t, err)

	matches := Matches(reg, gen)
	require.Len(t, matches, 1)
	assert.Equal(t, "phish.example.org/", matches[0].Expression)
}

func TestRegistry_Empty(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Lookup([]string{"example.com/"})[0].Listed)

	var nilReg *Registry
	assert.Equal(t, 0, nilReg.Len())
	assert.False(t, nilReg.Lookup([]string{"example.com/"})[0].Listed)
}

func TestEntryKey(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "evil.com", want: "evil.com/"},
		{raw: "http://Evil.com:8080/a/../b.php?id=1#x", want: "evil.com/b.php?id=1"},
		{raw: "http://0x7f.1/x", want: "127.0.0.1/x"},
	}
	for _, tt := range tests {
		got, err := EntryKey(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}

	_, err := EntryKey("http://localhost/")
	assert.Error(t, err)
}

func TestHash_Prefix(t *testing.T) {
	h := HashExpression("abc")
	// SHA-256("abc") starts with ba7816bf.
	assert.Equal(t, uint32(0xba7816bf), h.Prefix())
}
