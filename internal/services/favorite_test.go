package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavorites(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFavoriteService(db)

	seller := createTestUser(t, db, "seller")
	fan := createTestUser(t, db, "fan")

	first := createTestListing(t, db, seller, "Skates", 35)
	second := createTestListing(t, db, seller, "Helmet", 12)

	t.Run("AddAndList", func(t *testing.T) {
		require.NoError(t, svc.Add(fan.ID, first.ID))
		require.NoError(t, svc.Add(fan.ID, second.ID))

		favorites, err := svc.List(fan.ID)
		require.NoError(t, err)
		require.Len(t, favorites, 2)
		// Newest listing first.
		assert.Equal(t, second.ID, favorites[0].ID)
		assert.Equal(t, first.ID, favorites[1].ID)
	})

	t.Run("IdempotentAdd", func(t *testing.T) {
		err := svc.Add(fan.ID, first.ID)
		assert.ErrorIs(t, err, ErrAlreadyFavorited)

		// Never two rows for the same (user, listing) pair.
		var count int64
		require.NoError(t, db.Table("favorites").
			Where("user_id = ? AND listing_id = ?", fan.ID, first.ID).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("OwnListingForbidden", func(t *testing.T) {
		err := svc.Add(seller.ID, first.ID)
		assert.ErrorIs(t, err, ErrFavoriteOwnListing)
	})

	t.Run("RemoveAndIdempotentRemove", func(t *testing.T) {
		require.NoError(t, svc.Remove(fan.ID, first.ID))

		err := svc.Remove(fan.ID, first.ID)
		assert.ErrorIs(t, err, ErrNotFavorited)

		favorites, err := svc.List(fan.ID)
		require.NoError(t, err)
		require.Len(t, favorites, 1)
		assert.Equal(t, second.ID, favorites[0].ID)
	})

	t.Run("UnknownListing", func(t *testing.T) {
		err := svc.Add(fan.ID, 99999)
		assert.ErrorIs(t, err, ErrListingNotFound)
	})
}
