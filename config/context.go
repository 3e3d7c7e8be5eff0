package config

import (
	"context"

	"github.com/spf13/viper"
)

type contextKey struct{ key string }

var configKey = &contextKey{"viper"}

// SetViper attaches a Viper instance to the context so downstream
// components share one configuration source. A nil instance attaches
// the global one.
func SetViper(ctx context.Context, v *viper.Viper) context.Context {
	if v == nil {
		v = viper.GetViper()
	}

	return context.WithValue(ctx, configKey, v)
}

// Viper returns the Viper instance carried by the context, or the global
// instance when none was attached.
func Viper(ctx context.Context) *viper.Viper {
	v := ctx.Value(configKey)
	if v == nil {
		return viper.GetViper()
	}

	return v.(*viper.Viper)
}
