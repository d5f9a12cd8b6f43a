package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// batchConcurrency bounds how many chunked batch lookups run at once.
const batchConcurrency = 4

// ProfileService implements the user profile store. The cache is optional
// and only consulted by BatchGet.
type ProfileService struct {
	users  UserTable
	cache  ProfileCache
	logger *log.Logger
}

func NewProfileService(users UserTable, cache ProfileCache) *ProfileService {
	return &ProfileService{
		users:  users,
		cache:  cache,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentProfile),
	}
}

func (s *ProfileService) WithLogger(l *log.Logger) *ProfileService {
	s.logger = l.WithComponent(log.ComponentProfile)
	return s
}

// GetOrCreate returns the stored profile, or a synthesized one built from the
// identity email when none exists. The synthesized profile is not persisted.
func (s *ProfileService) GetOrCreate(ctx context.Context, userID, email string) (core.UserProfile, error) {
	if err := core.ValidateUserID(userID); err != nil {
		return core.UserProfile{}, err
	}
	p, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get user: %w", err)
	}
	if p != nil {
		return *p, nil
	}
	now := core.Now()
	return core.UserProfile{
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Upsert writes the full profile. The stored email and creation time are
// kept; every other field is replaced by the input.
func (s *ProfileService) Upsert(ctx context.Context, in core.UpdateProfileInput, email string) (core.UserProfile, error) {
	if err := in.Validate(); err != nil {
		return core.UserProfile{}, err
	}
	existing, err := s.users.GetUser(ctx, in.UserID)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get user: %w", err)
	}

	now := core.Now()
	p := core.UserProfile{
		UserID:      in.UserID,
		Email:       email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		DateOfBirth: in.DateOfBirth,
		Address:     in.Address,
		Phone:       in.Phone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing != nil {
		if existing.Email != "" {
			p.Email = existing.Email
		}
		if existing.CreatedAt != "" {
			p.CreatedAt = existing.CreatedAt
		}
	}

	if err := s.users.PutUser(ctx, p); err != nil {
		return core.UserProfile{}, fmt.Errorf("put user: %w", err)
	}
	if s.cache != nil {
		s.cache.Delete(ctx, p.UserID)
	}

	s.logger.For(ctx).InfoContext(ctx, "Profile saved", log.NewFields().
		WithOperation(log.OpUpdate).
		WithUser(p.UserID).
		ToSlice()...)
	return p, nil
}

// BatchGet resolves the distinct ids in userIDs. Ids without a stored profile
// are absent from the result.
func (s *ProfileService) BatchGet(ctx context.Context, userIDs []string) (map[string]core.UserProfile, error) {
	out := make(map[string]core.UserProfile, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	var missing []string
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.cache != nil {
			if p, ok := s.cache.Get(ctx, id); ok {
				out[id] = *p
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for start := 0; start < len(missing); start += MaxBatchGetKeys {
		chunk := missing[start:min(start+MaxBatchGetKeys, len(missing))]
		g.Go(func() error {
			profiles, err := s.users.BatchGetUsers(gctx, chunk)
			if err != nil {
				return fmt.Errorf("batch get users: %w", err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range profiles {
				out[p.UserID] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		for _, id := range missing {
			if p, ok := out[id]; ok {
				s.cache.Set(ctx, p)
			}
		}
	}
	s.logger.For(ctx).DebugContext(ctx, "Batch profile lookup",
		"requested", len(seen), "fetched", len(missing), "found", len(out))
	return out, nil
}

// FindByEmail returns nil, nil when no profile carries email.
func (s *ProfileService) FindByEmail(ctx context.Context, email string) (*core.UserProfile, error) {
	if err := core.ValidateEmail(email); err != nil {
		return nil, err
	}
	p, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return p, nil
}
