package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM \t"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "ab", EmailLocalPart("ab@example.com"))
	assert.Equal(t, "x", EmailLocalPart("x@example.com"))
	assert.Equal(t, "no-at-sign", EmailLocalPart("no-at-sign"))
	assert.Equal(t, "", EmailLocalPart("@example.com"))
}

func TestValidateEmailSyntaxOnly(t *testing.T) {
	ctx := context.Background()

	valid := []string{"ada@example.com", "first.last+tag@sub.example.org"}
	for _, e := range valid {
		ok, err := ValidateEmail(ctx, "", e, false, false)
		require.NoError(t, err)
		assert.True(t, ok, e)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@nouser.com",
		"user@invalid",
		"Ada <ada@example.com>",
	}
	for _, e := range invalid {
		ok, err := ValidateEmail(ctx, "", e, false, false)
		require.NoError(t, err)
		assert.False(t, ok, e)
	}
}
