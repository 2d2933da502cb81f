package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"rt-chat-backend/internal/models"
	"rt-chat-backend/internal/repository"
)

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) UsernameOrEmailExists(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) ListExcept(_ context.Context, userID string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*models.User, 0)
	for _, user := range s.users {
		if user.ID != userID {
			cp := *user
			users = append(users, &cp)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (s *fakeUserStore) UpdateRefreshToken(_ context.Context, userID, refreshToken string) error {
	return s.update(userID, func(u *models.User) { u.RefreshToken = refreshToken })
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	return s.update(userID, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (s *fakeUserStore) UpdateDetails(_ context.Context, userID, fullName, email string) error {
	return s.update(userID, func(u *models.User) { u.FullName = fullName; u.Email = email })
}

func (s *fakeUserStore) UpdateAvatarURL(_ context.Context, userID, avatarURL string) error {
	return s.update(userID, func(u *models.User) { u.AvatarURL = avatarURL })
}

func (s *fakeUserStore) update(userID string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(user)
	return nil
}

// fakeMessageStore is an in-memory MessageStore preserving insertion order.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []*models.Message
	failNext error
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (s *fakeMessageStore) Create(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	cp := *message
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *fakeMessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, message := range s.messages {
		if message.ID == id {
			cp := *message
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeMessageStore) ListConversation(_ context.Context, userID, peerID string) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*models.Message, 0)
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == peerID) ||
			(m.SenderID == peerID && m.ReceiverID == userID) {
			cp := *m
			result = append(result, &cp)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *fakeMessageStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeMessageStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

var errUploadDown = fmt.Errorf("media storage down")

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, prefix, filename string, file io.Reader) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := fmt.Sprintf("https://media.test/%s/%s", prefix, filename)
	u.uploads = append(u.uploads, url)
	return url, nil
}

// fakeNotifier records pushed events.
type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	messages []*models.Message
}

func (n *fakeNotifier) NotifyNewMessage(userID string, message *models.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, userID)
	n.messages = append(n.messages, message)
}
