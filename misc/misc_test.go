package misc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIndicator(t *testing.T) {
	assert.NoError(t, SanitizeIndicator("MDG_0000000007"))
	assert.NoError(t, SanitizeIndicator("WHOSIS_000001"))

	assert.Error(t, SanitizeIndicator(""))
	assert.Error(t, SanitizeIndicator("../escape"))
	assert.Error(t, SanitizeIndicator("has space"))
	assert.Error(t, SanitizeIndicator("drop;table"))
}

func TestTruncateStr(t *testing.T) {
	assert.Equal(t, "abc", TruncateStr("abcdef", 3))
	assert.Equal(t, "abc", TruncateStr("abc", 10))
}

func TestExcerptStr(t *testing.T) {
	assert.Equal(t, "abc...", ExcerptStr("abcdef", 3))
	assert.Equal(t, "abc", ExcerptStr("abc", 10))
	assert.Equal(t, "abc", ExcerptStr("abc", 3))
}

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true) })
	assert.Panics(t, func() { Assert(false) })
}

func TestAssertError(t *testing.T) {
	assert.NotPanics(t, func() { AssertError(nil) })
	assert.Panics(t, func() { AssertError(assert.AnError) })
}
