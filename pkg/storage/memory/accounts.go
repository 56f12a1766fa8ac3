package memory

import (
	"context"
	"sort"

	"github.com/printshop-service/pkg/apperr"
	"github.com/printshop-service/pkg/portal"
	"github.com/printshop-service/pkg/sales"
)

// Activities ------------------------------------------------------------------

func (s *Store) CreateActivity(_ context.Context, a sales.Activity) (sales.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.activities[a.ID]; exists && a.ID != "" {
		return sales.Activity{}, apperr.Conflict("activity %s already exists", a.ID)
	}
	a.ID = s.assignIDLocked(a.ID)
	a.CreatedAt = s.now()
	s.activities[a.ID] = a
	return a, nil
}

func (s *Store) UpdateActivity(_ context.Context, a sales.Activity) (sales.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.activities[a.ID]
	if !ok {
		return sales.Activity{}, apperr.NotFound("activity", a.ID)
	}
	a.CreatedAt = existing.CreatedAt
	s.activities[a.ID] = a
	return a, nil
}

func (s *Store) GetActivity(_ context.Context, id string) (sales.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.activities[id]
	if !ok {
		return sales.Activity{}, apperr.NotFound("activity", id)
	}
	return a, nil
}

func (s *Store) ListActivities(_ context.Context, f sales.ActivityFilter) ([]sales.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sales.Activity, 0, len(s.activities))
	for _, a := range s.activities {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.newerFirst(out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) DeleteActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.activities[id]; !ok {
		return apperr.NotFound("activity", id)
	}
	delete(s.activities, id)
	return nil
}

// Portal users ----------------------------------------------------------------

func (s *Store) emailTakenLocked(email, exceptID string) bool {
	for id, u := range s.portalUsers {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) CreatePortalUser(_ context.Context, u portal.User) (portal.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = portal.NormalizeEmail(u.Email)
	if s.emailTakenLocked(u.Email, "") {
		return portal.User{}, apperr.Conflict("portal user %s already exists", u.Email)
	}
	u.ID = s.assignIDLocked(u.ID)
	u.CreatedAt = s.now()
	s.portalUsers[u.ID] = u
	return u, nil
}

func (s *Store) UpdatePortalUser(_ context.Context, u portal.User) (portal.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.portalUsers[u.ID]
	if !ok {
		return portal.User{}, apperr.NotFound("portal user", u.ID)
	}
	u.Email = portal.NormalizeEmail(u.Email)
	if s.emailTakenLocked(u.Email, u.ID) {
		return portal.User{}, apperr.Conflict("portal user %s already exists", u.Email)
	}
	u.CreatedAt = existing.CreatedAt
	s.portalUsers[u.ID] = u
	return u, nil
}

func (s *Store) GetPortalUser(_ context.Context, id string) (portal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.portalUsers[id]
	if !ok {
		return portal.User{}, apperr.NotFound("portal user", id)
	}
	return u, nil
}

func (s *Store) GetPortalUserByEmail(_ context.Context, email string) (portal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = portal.NormalizeEmail(email)
	for _, u := range s.portalUsers {
		if u.Email == email {
			return u, nil
		}
	}
	return portal.User{}, apperr.NotFound("portal user", email)
}

func (s *Store) ListPortalUsers(_ context.Context, customerID string) ([]portal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]portal.User, 0, len(s.portalUsers))
	for _, u := range s.portalUsers {
		if customerID == "" || u.CustomerID == customerID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *Store) DeletePortalUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portalUsers[id]; !ok {
		return apperr.NotFound("portal user", id)
	}
	delete(s.portalUsers, id)
	return nil
}
