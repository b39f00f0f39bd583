package session

import "errors"

var (
	// ErrNoSecret indicates the manager was created without a signing secret
	ErrNoSecret = errors.New("session.no_secret")

	// ErrRecordNotFound indicates no record exists for the given id
	ErrRecordNotFound = errors.New("session.record_not_found")

	// ErrDetached indicates the record is no longer backed by a store
	ErrDetached = errors.New("session.detached")

	// ErrCookieTooLarge indicates the serialized cookie exceeds the emission ceiling.
	// This is a programming error (oversized payload), never a client condition.
	ErrCookieTooLarge = errors.New("session.cookie_too_large")

	// ErrIDGeneration indicates the random source failed
	ErrIDGeneration = errors.New("session.id_generation_failed")
)
