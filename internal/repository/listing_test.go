package repository

import (
	"context"
	"testing"
	"time"

	"feira/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedListing(t *testing.T, repo ListingRepository, name string, mutate func(*models.Listing)) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		Name:     name,
		Category: "food",
		Email:    "owner@example.com",
	}
	if mutate != nil {
		mutate(listing)
	}
	require.NoError(t, repo.Create(context.Background(), listing))
	return listing
}

func TestListingRepository_Approve_BatchSingleStatement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "listings" SET .+ WHERE id IN \(\$5,\$6,\$7\)`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 1, 2, 3).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	affected, err := repo.Approve(ctx, []uint{1, 2, 3})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_EmptyIDSet_IssuesNoSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	for name, op := range map[string]func() (int64, error){
		"approve": func() (int64, error) { return repo.Approve(ctx, nil) },
		"trash":   func() (int64, error) { return repo.Trash(ctx, []uint{}) },
		"restore": func() (int64, error) { return repo.Restore(ctx, nil) },
		"purge":   func() (int64, error) { return repo.Purge(ctx, nil) },
	} {
		t.Run(name, func(t *testing.T) {
			affected, err := op()
			assert.NoError(t, err)
			assert.Zero(t, affected)
		})
	}

	// No expectations registered: any SQL issued would have failed above.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepository_Lifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	pending := seedListing(t, repo, "Padaria Central", nil)
	require.True(t, pending.Pending())

	// Approve clears any trash/suspension state as well.
	affected, err := repo.Approve(ctx, []uint{pending.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	got, err := repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.False(t, got.Suspended)
	assert.Nil(t, got.DeletedAt)
	assert.True(t, got.Visible())

	// Trash removes approval so a restore lands back in the review queue.
	affected, err = repo.Trash(ctx, []uint{pending.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	got, err = repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, got.Trashed())
	assert.False(t, got.Approved)

	affected, err = repo.Restore(ctx, []uint{pending.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	got, err = repo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, got.Pending())

	affected, err = repo.Purge(ctx, []uint{pending.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	_, err = repo.GetByID(ctx, pending.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestListingRepository_Approve_SkipsMissingIDs(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	a := seedListing(t, repo, "Banca da Ana", nil)
	b := seedListing(t, repo, "Banca do Bento", nil)

	affected, err := repo.Approve(ctx, []uint{a.ID, 9999, b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	for _, id := range []uint{a.ID, b.ID} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Approved)
	}
}

func TestListingRepository_ListVisible_ExcludesModeratedOut(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	visible := seedListing(t, repo, "Mercearia Aberta", func(l *models.Listing) {
		l.Approved = true
	})
	seedListing(t, repo, "Aguardando", nil)
	seedListing(t, repo, "Suspensa", func(l *models.Listing) {
		l.Approved = true
		l.Suspended = true
	})
	now := time.Now()
	seedListing(t, repo, "Na Lixeira", func(l *models.Listing) {
		l.Approved = true
		l.DeletedAt = &now
	})

	listings, err := repo.ListVisible(ctx, ListingFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, visible.ID, listings[0].ID)
}

func TestListingRepository_ListVisible_FiltersByCategory(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	food := seedListing(t, repo, "Quitanda", func(l *models.Listing) {
		l.Approved = true
		l.Category = "food"
	})
	seedListing(t, repo, "Oficina", func(l *models.Listing) {
		l.Approved = true
		l.Category = "services"
	})

	listings, err := repo.ListVisible(ctx, ListingFilter{Category: "food", Limit: 20})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, food.ID, listings[0].ID)
}

func TestListingRepository_PendingAndTrashQueues(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	p1 := seedListing(t, repo, "Fila Um", nil)
	p2 := seedListing(t, repo, "Fila Dois", nil)
	trashed := seedListing(t, repo, "Removida", nil)
	_, err := repo.Trash(ctx, []uint{trashed.ID})
	require.NoError(t, err)

	pending, err := repo.ListPending(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	// Oldest submissions first in the review queue.
	assert.Equal(t, p1.ID, pending[0].ID)
	assert.Equal(t, p2.ID, pending[1].ID)

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	trash, err := repo.ListTrashed(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, trashed.ID, trash[0].ID)
}

func TestListingRepository_ListByEmail_CaseInsensitive(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	mine := seedListing(t, repo, "Minha Banca", func(l *models.Listing) {
		l.Email = "Dona@Example.COM"
	})
	seedListing(t, repo, "De Outro", func(l *models.Listing) {
		l.Email = "outro@example.com"
	})

	listings, err := repo.ListByEmail(ctx, "dona@example.com", 20, 0)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, mine.ID, listings[0].ID)
}

func TestListingRepository_IncrementViews(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	listing := seedListing(t, repo, "Contador", nil)

	require.NoError(t, repo.IncrementViews(ctx, listing.ID))
	require.NoError(t, repo.IncrementViews(ctx, listing.ID))

	got, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)
}

func TestListingRepository_Suspend_HidesFromPublicUntilReapproved(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	listing := seedListing(t, repo, "Banca Suspensa", func(l *models.Listing) { l.Approved = true })

	visible, err := repo.ListVisible(ctx, ListingFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)

	affected, err := repo.Suspend(ctx, []uint{listing.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	visible, err = repo.ListVisible(ctx, ListingFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible, "suspended listings leave the public set")

	// Approving clears the suspension.
	_, err = repo.Approve(ctx, []uint{listing.ID})
	require.NoError(t, err)

	visible, err = repo.ListVisible(ctx, ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestListingRepository_ListVisible_RandomOrderKeepsFullSet(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedListing(t, repo, "Banca", func(l *models.Listing) { l.Approved = true })
	}

	listings, err := repo.ListVisible(ctx, ListingFilter{Random: true})
	require.NoError(t, err)
	assert.Len(t, listings, 5)
}
