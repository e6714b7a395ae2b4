package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/google/uuid"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) Get(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errs.NotFound("user not found")
}

type fakeProjects struct {
	projects map[string]*domain.Project
	members  map[string]map[string]bool // projectID -> userID -> member
}

func (f *fakeProjects) Get(_ context.Context, id string) (*domain.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, errs.NotFound("project not found")
}

func (f *fakeProjects) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	return f.members[projectID][userID], nil
}

type fakeChannels struct {
	channels map[string]*domain.Channel
	members  map[string]map[string]bool
}

func (f *fakeChannels) Get(_ context.Context, id string) (*domain.Channel, error) {
	if ch, ok := f.channels[id]; ok {
		return ch, nil
	}
	return nil, errs.NotFound("channel not found")
}

func (f *fakeChannels) IsMember(_ context.Context, channelID, userID string) (bool, error) {
	return f.members[channelID][userID], nil
}

// fakeMessageStore is an in-memory MessageStore with the same uniqueness
// behavior as the postgres repository.
type fakeMessageStore struct {
	messages  map[string]*domain.Message
	reactions map[string]*domain.Reaction   // message|user|emoji
	reads     map[string]*domain.ReadReceipt // message|user
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{
		messages:  make(map[string]*domain.Message),
		reactions: make(map[string]*domain.Reaction),
		reads:     make(map[string]*domain.ReadReceipt),
	}
}

func (f *fakeMessageStore) SaveMessage(_ context.Context, m *domain.Message) error {
	m.ID = uuid.New().String()
	m.CreatedAt = time.Now()
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeMessageStore) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	if m, ok := f.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errs.NotFound("message not found")
}

func (f *fakeMessageStore) SaveReaction(_ context.Context, r *domain.Reaction) (bool, error) {
	key := fmt.Sprintf("%s|%s|%s", r.MessageID, r.UserID, r.Emoji)
	if _, exists := f.reactions[key]; exists {
		return false, nil
	}
	r.CreatedAt = time.Now()
	cp := *r
	f.reactions[key] = &cp
	return true, nil
}

func (f *fakeMessageStore) UpsertReadReceipt(_ context.Context, messageID, userID string) (*domain.ReadReceipt, error) {
	key := fmt.Sprintf("%s|%s", messageID, userID)
	rr, ok := f.reads[key]
	if !ok {
		rr = &domain.ReadReceipt{MessageID: messageID, UserID: userID}
		f.reads[key] = rr
	}
	rr.ReadAt = time.Now()
	cp := *rr
	return &cp, nil
}

type fakeVerifier struct {
	subjects map[string]string // token -> subject
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	if sub, ok := f.subjects[token]; ok {
		return sub, nil
	}
	return "", errs.Unauthorized("invalid token")
}
