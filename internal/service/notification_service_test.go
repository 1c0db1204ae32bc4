package service

import (
	"context"
	"testing"

	"feira/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notifRepoStub is a stub for repository.NotificationRepository.
type notifRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	createBatchFn func(context.Context, []models.Notification) error
	listByUserFn  func(context.Context, uint, bool, int, int) ([]models.Notification, error)
	countUnreadFn func(context.Context, uint) (int64, error)
	markReadFn    func(context.Context, uint, []uint) (int64, error)
	markAllReadFn func(context.Context, uint) (int64, error)
	deleteFn      func(context.Context, uint, uint) error
}

func (s *notifRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notifRepoStub) CreateBatch(ctx context.Context, ns []models.Notification) error {
	return s.createBatchFn(ctx, ns)
}
func (s *notifRepoStub) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	return s.listByUserFn(ctx, userID, unreadOnly, limit, offset)
}
func (s *notifRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}
func (s *notifRepoStub) MarkRead(ctx context.Context, userID uint, ids []uint) (int64, error) {
	return s.markReadFn(ctx, userID, ids)
}
func (s *notifRepoStub) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.markAllReadFn(ctx, userID)
}
func (s *notifRepoStub) Delete(ctx context.Context, userID, id uint) error {
	return s.deleteFn(ctx, userID, id)
}

func noopNotifRepo() *notifRepoStub {
	return &notifRepoStub{
		createFn: func(_ context.Context, n *models.Notification) error {
			n.ID = 1
			return nil
		},
		createBatchFn: func(_ context.Context, _ []models.Notification) error { return nil },
		listByUserFn:  func(_ context.Context, _ uint, _ bool, _, _ int) ([]models.Notification, error) { return nil, nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		markReadFn:    func(_ context.Context, _ uint, ids []uint) (int64, error) { return int64(len(ids)), nil },
		markAllReadFn: func(_ context.Context, _ uint) (int64, error) { return 3, nil },
		deleteFn:      func(_ context.Context, _, _ uint) error { return nil },
	}
}

func TestNotificationService_MarkRead_Selectors(t *testing.T) {
	repo := noopNotifRepo()
	var markedIDs []uint
	allCalled := false
	repo.markReadFn = func(_ context.Context, _ uint, ids []uint) (int64, error) {
		markedIDs = ids
		return int64(len(ids)), nil
	}
	repo.markAllReadFn = func(_ context.Context, _ uint) (int64, error) {
		allCalled = true
		return 5, nil
	}
	svc := NewNotificationService(repo, noopUserRepo())
	ctx := context.Background()

	affected, err := svc.MarkRead(ctx, 1, MarkReadInput{IDs: []uint{2, 3}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)
	assert.Equal(t, []uint{2, 3}, markedIDs)

	affected, err = svc.MarkRead(ctx, 1, MarkReadInput{All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 5, affected)
	assert.True(t, allCalled)

	// Empty selector is a no-op, not an error.
	affected, err = svc.MarkRead(ctx, 1, MarkReadInput{})
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestNotificationService_NotifyByEmail(t *testing.T) {
	notifRepo := noopNotifRepo()
	var created *models.Notification
	notifRepo.createFn = func(_ context.Context, n *models.Notification) error {
		n.ID = 10
		created = n
		return nil
	}
	users := noopUserRepo()
	users.upsertByEmailFn = func(_ context.Context, name, email string) (*models.User, error) {
		return &models.User{ID: 77, Name: name, Email: email, Role: models.RoleUser}, nil
	}
	svc := NewNotificationService(notifRepo, users)

	notification, err := svc.NotifyByEmail(context.Background(), "nova@example.com", "bem-vinda")
	require.NoError(t, err)
	assert.Equal(t, uint(77), created.UserID)
	assert.Equal(t, "bem-vinda", notification.Message)

	_, err = svc.NotifyByEmail(context.Background(), "", "oi")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = svc.NotifyByEmail(context.Background(), "x@example.com", "  ")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}
