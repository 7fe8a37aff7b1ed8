package config

import (
	"context"
	"errors"
)

var (
	// ErrUnknownReference is returned when a declaration mentions a name that
	// no loaded file declares.
	ErrUnknownReference = errors.New("unknown reference")
	// ErrDuplicateDecl is returned when two declarations share a qualified name.
	ErrDuplicateDecl = errors.New("duplicate declaration")
	// ErrInvalidDecl is returned for a declaration whose fields contradict each other.
	ErrInvalidDecl = errors.New("invalid declaration")
)

// Loader is the interface for a format-specific program loader.
type Loader interface {
	// Load reads every program file found under paths and translates them
	// into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Loaders fans Load out to several format loaders and merges their models.
// Each loader only picks up the files it understands.
type Loaders []Loader

// Load implements Loader.
func (ls Loaders) Load(ctx context.Context, paths ...string) (*Model, error) {
	model := &Model{}
	for _, l := range ls {
		m, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, err
		}
		model.Merge(m)
	}
	return model, nil
}
