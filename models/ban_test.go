package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBan_IsEffective(t *testing.T) {
	created := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	expires := created.Add(time.Hour)

	t.Run("permanent ban stays effective", func(t *testing.T) {
		ban := &Ban{Scope: BanScopeUser, CreatedAt: created}
		assert.True(t, ban.IsEffective(created.Add(365*24*time.Hour)))
	})

	t.Run("timed ban effective just before expiry", func(t *testing.T) {
		ban := &Ban{Scope: BanScopeUser, CreatedAt: created, ExpiresAt: &expires}
		assert.True(t, ban.IsEffective(created.Add(3599*time.Second)))
	})

	t.Run("timed ban ineffective just after expiry", func(t *testing.T) {
		ban := &Ban{Scope: BanScopeUser, CreatedAt: created, ExpiresAt: &expires}
		assert.False(t, ban.IsEffective(created.Add(3601*time.Second)))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		ban := &Ban{Scope: BanScopeUser, CreatedAt: created, ExpiresAt: &expires}
		assert.False(t, ban.IsEffective(expires))
	})

	t.Run("revoked ban is ineffective regardless of expiry", func(t *testing.T) {
		revoked := created.Add(time.Minute)
		ban := &Ban{Scope: BanScopeUser, CreatedAt: created, RevokedAt: &revoked}
		assert.False(t, ban.IsEffective(created.Add(2*time.Minute)))
	})
}

func TestBanScope_Valid(t *testing.T) {
	assert.True(t, BanScopeUser.Valid())
	assert.True(t, BanScopeIP.Valid())
	assert.True(t, BanScopeHWID.Valid())
	assert.False(t, BanScope("email").Valid())
}
