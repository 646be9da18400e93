package utils

import (
	"errors"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
)

const LDConnectionTimeout = 5 * time.Second

// FeatureFlags reads LaunchDarkly variations for a single server context.
// A FeatureFlags built without an SDK key answers every lookup with the
// supplied default, which is how local and test runs operate.
type FeatureFlags struct {
	client *ld.LDClient
	ctx    ldcontext.Context
}

func NewFeatureFlags(sdkKey, contextKind, contextKey string) (*FeatureFlags, error) {
	ctx := ldcontext.NewWithKind(ldcontext.Kind(contextKind), contextKey)
	if sdkKey == "" {
		Logger.Info("LD_SDK_KEY not set; feature flags fall back to defaults")
		return &FeatureFlags{ctx: ctx}, nil
	}

	client, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return nil, err
	}
	if !client.Initialized() {
		client.Close()
		return nil, errors.New("launchdarkly client failed to initialize")
	}
	return &FeatureFlags{client: client, ctx: ctx}, nil
}

func (f *FeatureFlags) Bool(key string, def bool) bool {
	if f == nil || f.client == nil {
		return def
	}
	v, err := f.client.BoolVariation(key, f.ctx, def)
	if err != nil {
		Logger.WithError(err).Warnf("Error retrieving %s flag; using default %t", key, def)
		return def
	}
	Logger.Debugf("%s flag: %t", key, v)
	return v
}

func (f *FeatureFlags) String(key string, def string) string {
	if f == nil || f.client == nil {
		return def
	}
	v, err := f.client.StringVariation(key, f.ctx, def)
	if err != nil || v == "" {
		if err != nil {
			Logger.WithError(err).Warnf("Error retrieving %s flag; using default %q", key, def)
		}
		return def
	}
	Logger.Debugf("%s flag: %s", key, v)
	return v
}

func (f *FeatureFlags) Close() {
	if f != nil && f.client != nil {
		_ = f.client.Close()
	}
}
