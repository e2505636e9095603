package repository

import (
	"context"
	"testing"
	"time"

	"pairline/models"
	"pairline/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanRepository_HasEffective(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBanRepository(testDB.DB)
	ctx := context.Background()

	t.Run("permanent ban is effective", func(t *testing.T) {
		ban := testutil.CreateTestBan(100, "harassment")
		require.NoError(t, repo.Create(ctx, ban))
		assert.NotZero(t, ban.ID)

		banned, err := repo.HasEffective(ctx, models.BanScopeUser, 100, "")
		require.NoError(t, err)
		assert.True(t, banned)
	})

	t.Run("unbanned user is not flagged", func(t *testing.T) {
		banned, err := repo.HasEffective(ctx, models.BanScopeUser, 999, "")
		require.NoError(t, err)
		assert.False(t, banned)
	})

	t.Run("expired ban is not effective", func(t *testing.T) {
		ban := testutil.CreateTestBan(200, "spam")
		expired := time.Now().Add(-time.Minute)
		ban.ExpiresAt = &expired
		require.NoError(t, repo.Create(ctx, ban))

		banned, err := repo.HasEffective(ctx, models.BanScopeUser, 200, "")
		require.NoError(t, err)
		assert.False(t, banned)
	})

	t.Run("timed ban is effective until expiry", func(t *testing.T) {
		ban := testutil.CreateTestTimedBan(300, "abuse", time.Hour)
		require.NoError(t, repo.Create(ctx, ban))

		banned, err := repo.HasEffective(ctx, models.BanScopeUser, 300, "")
		require.NoError(t, err)
		assert.True(t, banned)
	})

	t.Run("ip ban matches literal value only", func(t *testing.T) {
		addr := "203.0.113.7"
		ban := &models.Ban{
			Scope:       models.BanScopeIP,
			TargetValue: &addr,
			Reason:      "ban evasion",
		}
		require.NoError(t, repo.Create(ctx, ban))

		banned, err := repo.HasEffective(ctx, models.BanScopeIP, 0, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, banned)

		banned, err = repo.HasEffective(ctx, models.BanScopeIP, 0, "203.0.113.8")
		require.NoError(t, err)
		assert.False(t, banned)
	})
}

func TestBanRepository_RevokeUserBans(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewBanRepository(testDB.DB)
	ctx := context.Background()

	// Two live bans and one already expired
	require.NoError(t, repo.Create(ctx, testutil.CreateTestBan(100, "first")))
	require.NoError(t, repo.Create(ctx, testutil.CreateTestTimedBan(100, "second", time.Hour)))
	expiredBan := testutil.CreateTestBan(100, "old")
	expired := time.Now().Add(-time.Hour)
	expiredBan.ExpiresAt = &expired
	require.NoError(t, repo.Create(ctx, expiredBan))

	revoked, err := repo.RevokeUserBans(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), revoked)

	banned, err := repo.HasEffective(ctx, models.BanScopeUser, 100, "")
	require.NoError(t, err)
	assert.False(t, banned)

	// Second revoke has nothing left to touch
	revoked, err = repo.RevokeUserBans(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, revoked)

	// The expired ban keeps its own terminal state in the audit trail
	bans, err := repo.GetByTargetUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, bans, 3)
	for _, ban := range bans {
		if ban.Reason == "old" {
			assert.Nil(t, ban.RevokedAt)
		} else {
			assert.NotNil(t, ban.RevokedAt)
		}
	}
}
