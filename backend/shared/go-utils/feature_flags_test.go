package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlagsWithoutSDKKeyUseDefaults(t *testing.T) {
	flags, err := NewFeatureFlags("", "service", "membership-service")
	require.NoError(t, err)
	defer flags.Close()

	assert.True(t, flags.Bool("slack_invites_enabled", true))
	assert.False(t, flags.Bool("cors_high_security", false))
	assert.Equal(t, "hello@techcircle.ng", flags.String("sendgrid_from_email", "hello@techcircle.ng"))

	var nilFlags *FeatureFlags
	assert.True(t, nilFlags.Bool("anything", true))
}
