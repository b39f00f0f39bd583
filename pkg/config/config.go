// Package config loads configuration structs from the environment.
//
// Each package owns a Config struct annotated with `env` and `envDefault`
// tags; this package parses them, after loading a local .env file once if
// one exists.
package config

import (
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer indicates Load was called with a nil destination
	ErrNilPointer = errors.New("config.nil_pointer")

	// ErrParsing wraps env tag parsing failures
	ErrParsing = errors.New("config.parsing_failed")
)

var dotenvOnce sync.Once

// Load parses environment variables into the provided struct. A missing
// .env file is not an error; a malformed tag or a missing required
// variable is.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsing, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Intended for startup
// configuration without which the process cannot run.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(err)
	}
}
