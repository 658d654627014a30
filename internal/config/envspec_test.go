package config_test

import (
	"reflect"
	"testing"

	cfg "github.com/ArkLabsHQ/lightwallet/internal/config"
	"github.com/stretchr/testify/require"
)

func TestSpecMatchesStructDefaults(t *testing.T) {
	tags := map[string]string{}
	typ := reflect.TypeOf(cfg.Config{})
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		tags[f.Tag.Get("mapstructure")] = f.Tag.Get("envDefault")
	}

	specs := cfg.EnvSpecs()
	require.Len(t, specs, len(tags))
	for _, s := range specs {
		def, ok := tags[s.Name]
		require.True(t, ok, "unknown variable %s", s.Name)
		require.Equal(t, def, s.Default, "default mismatch for %s", s.Name)
		require.Equal(t, "LIGHTWALLET_"+s.Name, s.FullName)
	}
}
