// Package identity resolves participant ids to display profiles by falling
// back across two disjoint stores: the primary profile store and the
// membership directory. Resolution never fails upward; total failure
// degrades to a sentinel profile so feed rendering is never blocked by one
// bad lookup.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"member-hub/domain"
	apperrors "member-hub/errors"
	"member-hub/repositories"
)

type Resolver interface {
	Resolve(ctx context.Context, participantID string) (domain.ParticipantProfile, error)
}

// ProfileStoreResolver serves the primary profile store.
type ProfileStoreResolver struct {
	profiles repositories.IProfileRepository
}

func NewProfileStoreResolver(profiles repositories.IProfileRepository) *ProfileStoreResolver {
	return &ProfileStoreResolver{profiles: profiles}
}

func (r *ProfileStoreResolver) Resolve(_ context.Context, participantID string) (domain.ParticipantProfile, error) {
	return r.profiles.Get(participantID)
}

// DirectoryResolver is the fallback lookup against the membership directory.
type DirectoryResolver struct {
	directory DirectoryClient
}

func NewDirectoryResolver(directory DirectoryClient) *DirectoryResolver {
	return &DirectoryResolver{directory: directory}
}

func (r *DirectoryResolver) Resolve(ctx context.Context, participantID string) (domain.ParticipantProfile, error) {
	user, err := r.directory.Lookup(ctx, participantID)
	if err != nil {
		return domain.ParticipantProfile{}, err
	}
	return domain.ParticipantProfile{
		ID:          user.UserID,
		DisplayName: user.FullName,
		Role:        user.Role,
	}, nil
}

// Chain tries each resolver in order; the first hit wins. A missing profile
// falls through silently, any other failure is logged and also falls
// through. When every resolver misses, the sentinel profile comes back with
// the original id preserved.
type Chain struct {
	log       *slog.Logger
	resolvers []Resolver
}

func NewChain(log *slog.Logger, resolvers ...Resolver) *Chain {
	return &Chain{log: log, resolvers: resolvers}
}

func (c *Chain) Resolve(ctx context.Context, participantID string) domain.ParticipantProfile {
	for _, resolver := range c.resolvers {
		profile, err := resolver.Resolve(ctx, participantID)
		if err == nil {
			return profile
		}
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			c.log.Warn("Identity lookup failed, falling through",
				"participant", participantID, "err", err)
		}
	}
	return domain.SentinelProfile(participantID)
}
