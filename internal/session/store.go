// Package session keeps the uploaded datasets of each operator in memory.
//
// Every upload opens a workspace keyed by a random id. Workspaces are
// isolated from each other and expire after a period without access.
// Nothing is persisted.
package session

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"autobill/pkg/contracts/domain"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// Workspace is the state behind one session id.
type Workspace struct {
	ID         string
	Datasets   map[domain.SourceKind]*domain.Dataset
	Warnings   []string
	CreatedAt  time.Time
	LastAccess time.Time
}

// Dataset returns the dataset of kind, or nil when it was not uploaded.
func (w *Workspace) Dataset(kind domain.SourceKind) *domain.Dataset {
	if w == nil || w.Datasets == nil {
		return nil
	}
	return w.Datasets[kind]
}

// Kinds lists the loaded source kinds in their canonical order.
func (w *Workspace) Kinds() []domain.SourceKind {
	var kinds []domain.SourceKind
	for _, k := range domain.SourceKinds {
		if w.Dataset(k) != nil {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// clone copies the map and slice headers. Datasets themselves are never
// mutated after loading and are shared.
func (w *Workspace) clone() *Workspace {
	c := *w
	c.Datasets = maps.Clone(w.Datasets)
	c.Warnings = slices.Clone(w.Warnings)
	return &c
}

// MemoryStore is an in-memory workspace store.
type MemoryStore struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewMemoryStore creates a store whose workspaces expire ttl after their last
// access. A zero ttl disables expiry.
func NewMemoryStore(ttl time.Duration, logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		workspaces: make(map[string]*Workspace),
		ttl:        ttl,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "session_store")),
	}
}

// Create stores a new workspace holding datasets and returns its copy with
// the assigned id.
func (s *MemoryStore) Create(datasets map[domain.SourceKind]*domain.Dataset, warnings []string) *Workspace {
	now := s.now()
	ws := &Workspace{
		ID:         uuid.New().String(),
		Datasets:   maps.Clone(datasets),
		Warnings:   slices.Clone(warnings),
		CreatedAt:  now,
		LastAccess: now,
	}
	if ws.Datasets == nil {
		ws.Datasets = make(map[domain.SourceKind]*domain.Dataset)
	}

	s.mu.Lock()
	s.workspaces[ws.ID] = ws
	s.mu.Unlock()

	s.logger.Debug("session created", slog.String("session_id", ws.ID))
	return ws.clone()
}

// Get returns a copy of the workspace and refreshes its last access time.
func (s *MemoryStore) Get(id string) (*Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, exists := s.workspaces[id]
	if !exists || s.expired(ws, s.now()) {
		return nil, ErrSessionNotFound
	}

	ws.LastAccess = s.now()
	return ws.clone(), nil
}

// Delete removes a workspace.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workspaces[id]; !exists {
		return ErrSessionNotFound
	}
	delete(s.workspaces, id)
	return nil
}

// Len returns the number of stored workspaces, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// Sweep removes every workspace idle for longer than the ttl as of now and
// returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.workspaces {
		if s.expired(ws, now) {
			delete(s.workspaces, id)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired workspaces every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(s.now()); n > 0 {
					s.logger.Info("expired sessions removed", slog.Int("count", n))
				}
			}
		}
	}()
}

func (s *MemoryStore) expired(ws *Workspace, now time.Time) bool {
	return s.ttl > 0 && now.Sub(ws.LastAccess) > s.ttl
}
