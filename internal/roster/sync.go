// Package roster keeps the user directory and the current project roster in
// step with the backend, and drives the add-collaborator flow.
package roster

import (
	"context"
	"errors"
	"sync"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
	"github.com/VarunWeb6/ALEX-AI/internal/logger"
)

var log = logger.Named("roster")

// ErrNothingSelected is returned by AddCollaborators with an empty selection.
var ErrNothingSelected = errors.New("roster: no users selected")

// Sync owns the directory cache, the project roster, and the transient
// collaborator selection set. The backend roster is the source of truth: the
// local copy is refreshed or reconciled after mutations, never trusted from
// optimistic edits alone.
type Sync struct {
	API *api.Client

	mu        sync.Mutex
	gen       uint64
	directory []api.UserRef
	byID      map[string]api.UserRef
	project   *api.Project
	selection map[string]struct{}
}

func New(client *api.Client) *Sync {
	return &Sync{
		API:       client,
		byID:      make(map[string]api.UserRef),
		selection: make(map[string]struct{}),
	}
}

// SetProject seeds the roster from a project already in hand (navigation
// state) before the authoritative refresh lands.
func (s *Sync) SetProject(p *api.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = cloneProject(p)
}

// Project returns a snapshot of the current project, or nil. Callers hold the
// snapshot across renders, so it must not alias guarded state.
func (s *Sync) Project() *api.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProject(s.project)
}

func cloneProject(p *api.Project) *api.Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Users = append([]api.UserRef(nil), p.Users...)
	return &out
}

// Directory returns the cached user directory.
func (s *Sync) Directory() []api.UserRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.UserRef, len(s.directory))
	copy(out, s.directory)
	return out
}

// Reset invalidates in-flight refreshes. The owning view calls it on
// teardown so a response landing after unmount is discarded instead of
// mutating torn-down state.
func (s *Sync) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
}

func (s *Sync) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// RefreshDirectory fetches the full user directory. A fetch failure keeps
// the prior cache untouched.
func (s *Sync) RefreshDirectory(ctx context.Context) error {
	gen := s.generation()
	users, err := s.API.ListUsers(ctx)
	if err != nil {
		log.Warn("directory fetch failed, keeping cache", "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		log.Debug("discarding stale directory response")
		return nil
	}
	s.directory = users
	s.byID = make(map[string]api.UserRef, len(users))
	for _, u := range users {
		s.byID[u.ID] = u
	}
	return nil
}

// RefreshRoster fetches a project's authoritative roster. Transient failures
// keep the prior roster; only an explicit not-found outcome clears it.
func (s *Sync) RefreshRoster(ctx context.Context, projectID string) error {
	gen := s.generation()
	p, err := s.API.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.mu.Lock()
			if s.gen == gen {
				s.project = nil
			}
			s.mu.Unlock()
			return err
		}
		log.Warn("roster fetch failed, keeping prior state", "project", projectID, "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		log.Debug("discarding stale roster response", "project", projectID)
		return nil
	}
	s.project = p
	return nil
}

// ToggleSelect flips a user in or out of the transient selection set.
func (s *Sync) ToggleSelect(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selection[userID]; ok {
		delete(s.selection, userID)
	} else {
		s.selection[userID] = struct{}{}
	}
}

func (s *Sync) IsSelected(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selection[userID]
	return ok
}

// Selected returns the selected user ids.
func (s *Sync) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selection))
	for id := range s.selection {
		out = append(out, id)
	}
	return out
}

// ClearSelection empties the selection set (picker closed or submitted).
func (s *Sync) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = make(map[string]struct{})
}

// AddCollaborators sends the selection to the membership endpoint. On success
// the local roster is reconciled by unioning the added users (resolved from
// the directory cache) into the project, duplicates excluded, and the
// selection is cleared. On failure selection and roster are left untouched so
// the user can adjust and retry.
func (s *Sync) AddCollaborators(ctx context.Context, projectID string) error {
	selected := s.Selected()
	if len(selected) == 0 {
		return ErrNothingSelected
	}

	updated, err := s.API.AddUsers(ctx, projectID, selected)
	if err != nil {
		log.Warn("add collaborators failed", "project", projectID, "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if updated != nil && len(updated.Users) > 0 {
		// Server returned the authoritative roster.
		s.project = updated
	} else if s.project != nil {
		// Reconcile into a fresh struct and swap, so snapshots handed out
		// earlier never see the mutation.
		next := cloneProject(s.project)
		for _, id := range selected {
			if next.HasUser(id) {
				continue
			}
			if u, ok := s.byID[id]; ok {
				next.Users = append(next.Users, u)
			}
		}
		s.project = next
	}
	s.selection = make(map[string]struct{})
	return nil
}
