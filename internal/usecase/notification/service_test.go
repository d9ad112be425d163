package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
)

// MockNotificationRepository is a mock implementation of domain.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) DeleteAll(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestService_MarkRead_OtherUsersNotification(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewService(repo, logger.New("test"))
	repo.On("MarkRead", mock.Anything, "n1", "u2").Return(nil, domain.ErrNotFound)

	_, err := service.MarkRead(context.Background(), "u2", "n1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_MarkRead(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewService(repo, logger.New("test"))
	repo.On("MarkRead", mock.Anything, "n1", "u1").Return(&domain.Notification{ID: "n1", UserID: "u1", IsRead: true}, nil)

	n, err := service.MarkRead(context.Background(), "u1", "n1")

	require.NoError(t, err)
	assert.True(t, n.IsRead)
}

func TestService_UnreadCount(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewService(repo, logger.New("test"))
	repo.On("CountUnread", mock.Anything, "u1").Return(4, nil)

	count, err := service.UnreadCount(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestService_Delete_ScopedToOwner(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewService(repo, logger.New("test"))
	repo.On("Delete", mock.Anything, "n1", "u1").Return(nil)
	repo.On("Delete", mock.Anything, "n1", "u2").Return(domain.ErrNotFound)

	require.NoError(t, service.Delete(context.Background(), "u1", "n1"))
	assert.ErrorIs(t, service.Delete(context.Background(), "u2", "n1"), domain.ErrNotFound)
}

func TestService_ReviewStatusChanged(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewService(repo, logger.New("test"))
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Type == TypeReviewStatus && n.Title == "Your review was approved"
	})).Return(nil)

	err := service.ReviewStatusChanged(context.Background(), &domain.Review{ID: "r1", UserID: "u1", Rating: 5, Status: domain.ReviewApproved})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_ReviewStatusChanged_WithoutAuthor(t *testing.T) {
	repo := new(MockNotificationRepository)
	service := NewService(repo, logger.New("test"))

	assert.ErrorIs(t, service.ReviewStatusChanged(context.Background(), nil), domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
