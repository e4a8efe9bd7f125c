// Package services holds the dashboard use cases. Reads are tagged with the
// data source they came from so callers can tell live data from the demo
// workspace.
package services

import (
	"context"
	"fmt"

	"socialsync/internal/demo"
	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/store"
)

// DataSource tags where a result came from.
type DataSource string

const (
	// SourceLive is data read from the configured backend.
	SourceLive DataSource = "live"
	// SourceDemo is demo data served because no backend is configured.
	SourceDemo DataSource = "demo"
	// SourceError is demo data served because the backend failed.
	SourceError DataSource = "error"
)

// Result is a read outcome. Error carries the backend failure when Source is
// SourceError.
type Result[T any] struct {
	Data   T          `json:"data"`
	Source DataSource `json:"source"`
	Error  string     `json:"error,omitempty"`
}

// Scope identifies the organization and user a call acts for.
type Scope struct {
	OrganizationID string
	UserID         string
}

// DemoScope is the scope of the demo workspace.
func DemoScope() Scope {
	return Scope{OrganizationID: demo.OrganizationID, UserID: demo.UserID}
}

func (sc Scope) validate() error {
	if sc.OrganizationID == "" {
		return fmt.Errorf("%w: no active organization", model.ErrUnauthenticated)
	}
	return nil
}

// Sources pairs the live backend (nil when none is configured) with the demo
// store used for previews and fallbacks.
type Sources struct {
	live store.Store
	demo store.Store
}

func NewSources(live, demoStore store.Store) *Sources {
	return &Sources{live: live, demo: demoStore}
}

// HasBackend reports whether a live store is configured.
func (s *Sources) HasBackend() bool { return s.live != nil }

// Store returns the store writes go to: the backend when configured,
// otherwise the demo store.
func (s *Sources) Store() store.Store {
	if s.live != nil {
		return s.live
	}
	return s.demo
}

// Scope resolves the scope writes act for. Without a backend every caller
// acts inside the demo workspace.
func (s *Sources) Scope(sc Scope) Scope {
	if s.live == nil {
		return DemoScope()
	}
	return sc
}

// read runs fn against the backend and falls back to the demo workspace
// when there is no backend or the backend fails.
func read[T any](ctx context.Context, src *Sources, op string, sc Scope, fn func(store.Store, Scope) (T, error)) Result[T] {
	if src.live == nil {
		data, err := fn(src.demo, DemoScope())
		if err != nil {
			return Result[T]{Data: data, Source: SourceError, Error: err.Error()}
		}
		return Result[T]{Data: data, Source: SourceDemo}
	}

	if err := sc.validate(); err != nil {
		return fallback(ctx, src, op, err, fn)
	}
	data, err := fn(src.live, sc)
	if err != nil {
		return fallback(ctx, src, op, err, fn)
	}
	return Result[T]{Data: data, Source: SourceLive}
}

func fallback[T any](_ context.Context, src *Sources, op string, cause error, fn func(store.Store, Scope) (T, error)) Result[T] {
	appLog.Error("backend read failed, serving demo data", cause, "op", op)
	fallbacksTotal.WithLabelValues(op).Inc()
	var data T
	if src.demo != nil {
		if d, err := fn(src.demo, DemoScope()); err == nil {
			data = d
		}
	}
	return Result[T]{Data: data, Source: SourceError, Error: cause.Error()}
}
