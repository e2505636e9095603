package testutil

import (
	"time"

	"pairline/models"
)

// CreateTestRoom creates a test room with default values
func CreateTestRoom(hostID int64, name string) *models.Room {
	return &models.Room{
		Name:       name,
		HostID:     hostID,
		Private:    false,
		MaxMembers: 12,
	}
}

// CreateTestPrivateRoom creates a private test room with a member cap
func CreateTestPrivateRoom(hostID int64, name string, maxMembers int) *models.Room {
	room := CreateTestRoom(hostID, name)
	room.Private = true
	room.MaxMembers = maxMembers
	return room
}

// CreateTestBan creates a user-scope test ban
func CreateTestBan(targetUserID int64, reason string) *models.Ban {
	return &models.Ban{
		Scope:        models.BanScopeUser,
		TargetUserID: &targetUserID,
		Reason:       reason,
	}
}

// CreateTestTimedBan creates a user-scope test ban expiring after d
func CreateTestTimedBan(targetUserID int64, reason string, d time.Duration) *models.Ban {
	ban := CreateTestBan(targetUserID, reason)
	expires := time.Now().Add(d)
	ban.ExpiresAt = &expires
	return ban
}

// CreateTestReport creates a test report with default values
func CreateTestReport(reporterID, targetID int64) *models.Report {
	return &models.Report{
		ReporterID: reporterID,
		TargetID:   targetID,
		Context:    "match:1",
		Reason:     "spam",
	}
}
