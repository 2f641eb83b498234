// internal/domain/presence.go
package domain

import (
	"fmt"
	"time"
)

// PresenceStatus defines user presence status
type PresenceStatus string

const (
	PresenceStatusOnline  PresenceStatus = "online"
	PresenceStatusOffline PresenceStatus = "offline"
)

func (s PresenceStatus) Valid() bool {
	return s == PresenceStatusOnline || s == PresenceStatusOffline
}

// ParseStatus accepts the wire form of a status.
func ParseStatus(raw string) (PresenceStatus, error) {
	s := PresenceStatus(raw)
	if !s.Valid() {
		return "", NewInvalidArgument("INVALID_STATUS", fmt.Sprintf("unknown presence status %q", raw))
	}
	return s, nil
}

// UserPresence represents the presence record of one user.
// Exactly one record exists for every user id ever seen.
type UserPresence struct {
	UserID   string         `gorm:"type:varchar(128);primaryKey" json:"userId"`
	Status   PresenceStatus `gorm:"type:varchar(20);not null;default:'offline';index" json:"status"`
	LastSeen time.Time      `gorm:"not null" json:"lastSeen"`
}

func (UserPresence) TableName() string {
	return "user_presences"
}

// LastSeenMillis returns last-seen as epoch milliseconds, the wire form used by replies.
func (p UserPresence) LastSeenMillis() int64 {
	return p.LastSeen.UnixMilli()
}

func (p UserPresence) IsOnline() bool {
	return p.Status == PresenceStatusOnline
}
