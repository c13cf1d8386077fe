// Package statestore serializes and persists the meta-only state
// document GDBT re-reads on every plan: for each resource group,
// {grafana, kind, resource_meta, state_version}.
package statestore

import (
	"context"
	"encoding/json"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
	"github.com/argannor/gdbt/internal/resource"
)

// CurrentVersion is the only state_version this build accepts; loading
// any other value surfaces StateVersionIncompatible, per spec.md §3.
const CurrentVersion = 2

// State is one resource group's persisted meta, matching the exact
// field order/shape spec.md §4.2 requires:
//
//	{ "grafana": str, "kind": str,
//	  "resource_meta": { name: {uid, grafana, kind}, ... },
//	  "state_version": int }
type State struct {
	Grafana      string                   `json:"grafana"`
	Kind         string                   `json:"kind"`
	ResourceMeta map[string]resource.Meta `json:"resource_meta"`
	StateVersion int                      `json:"state_version"`
}

// Empty builds an empty state for a freshly-created group.
func Empty(grafana, kind string) *State {
	return &State{
		Grafana:      grafana,
		Kind:         kind,
		ResourceMeta: map[string]resource.Meta{},
		StateVersion: CurrentVersion,
	}
}

// Store wraps a StateProvider with GDBT's serialization contract.
type Store struct {
	backend provider.StateProvider
}

func NewStore(backend provider.StateProvider) *Store {
	return &Store{backend: backend}
}

// List enumerates group names persisted under subdir.
func (s *Store) List(ctx context.Context, subdir string) ([]string, error) {
	return s.backend.List(ctx, subdir)
}

// Get loads group, returning nil (not an error) if nothing is
// persisted yet, and StateCorrupted on malformed JSON.
func (s *Store) Get(ctx context.Context, group string) (*State, error) {
	raw, err := s.backend.Get(ctx, group)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, gdbterrors.StateCorrupted(group)
	}
	if st.StateVersion != CurrentVersion {
		return nil, gdbterrors.StateVersionIncompatible(st.StateVersion, CurrentVersion)
	}
	return &st, nil
}

// Put persists group's state with the exact two-space-indent,
// sorted-key encoding spec.md §4.2 requires (encoding/json sorts map
// keys and preserves declared struct-field order by default).
func (s *Store) Put(ctx context.Context, group string, st *State) error {
	st.StateVersion = CurrentVersion
	encoded, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeData, err, group)
	}
	return s.backend.Put(ctx, group, encoded)
}

// Remove deletes a group's persisted state, idempotently.
func (s *Store) Remove(ctx context.Context, group string) error {
	return s.backend.Remove(ctx, group)
}

func (s *Store) Lock(ctx context.Context, group string) error {
	if err := s.backend.Lock(ctx, group); err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeStateLockError, err, group)
	}
	return nil
}

func (s *Store) Unlock(ctx context.Context, group string) error {
	if err := s.backend.Unlock(ctx, group); err != nil {
		return gdbterrors.Wrap(gdbterrors.CodeStateUnlockError, err, group)
	}
	return nil
}
