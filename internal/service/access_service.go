package service

import (
	"context"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"
)

type ProjectDirectory interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

type ChannelDirectory interface {
	Get(ctx context.Context, id string) (*domain.Channel, error)
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
}

// AccessService decides whether an identity may join or post to a room.
// Every decision reads the membership store fresh; results are never
// cached, because membership can change between a join and a later send.
type AccessService struct {
	users    UserDirectory
	projects ProjectDirectory
	channels ChannelDirectory
}

func NewAccessService(users UserDirectory, projects ProjectDirectory, channels ChannelDirectory) *AccessService {
	return &AccessService{users: users, projects: projects, channels: channels}
}

// CanAccessProject allows the project's manager and explicit members.
func (s *AccessService) CanAccessProject(ctx context.Context, userID, projectID string) (domain.Decision, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return domain.Decision{}, err
	}
	if p.ManagerID == userID {
		return domain.Allow("project manager"), nil
	}
	member, err := s.projects.IsMember(ctx, projectID, userID)
	if err != nil {
		return domain.Decision{}, err
	}
	if member {
		return domain.Allow("project member"), nil
	}
	return domain.Deny("not a member of this project"), nil
}

// CanAccessChannel allows elevated roles, explicit channel members, open
// team channels, and project channels whose project the user can access.
func (s *AccessService) CanAccessChannel(ctx context.Context, userID, channelID string) (domain.Decision, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.Decision{}, err
	}
	if u.Role.Elevated() {
		return domain.Allow("elevated role"), nil
	}

	ch, err := s.channels.Get(ctx, channelID)
	if err != nil {
		return domain.Decision{}, err
	}

	member, err := s.channels.IsMember(ctx, channelID, userID)
	if err != nil {
		return domain.Decision{}, err
	}
	if member {
		return domain.Allow("channel member"), nil
	}

	if ch.Type == domain.ChannelTeam && !ch.IsPrivate {
		return domain.Allow("open team channel"), nil
	}

	if ch.Type == domain.ChannelProject && ch.ProjectID != nil {
		return s.CanAccessProject(ctx, userID, *ch.ProjectID)
	}

	return domain.Deny("not a member of this channel"), nil
}

// DenyError converts a negative decision into the error surfaced to the
// originating connection.
func DenyError(d domain.Decision) error {
	return errs.Forbidden(d.Reason)
}
