package domain

import "encoding/json"

// Event names carried by the inter-service transport.
const (
	EventUserCreated         = "user.created"
	EventUserLoggedIn        = "user.logged.in"
	EventUserLoggedOut       = "user.logged.out"
	EventMessageCreated      = "message.created"
	EventUserPresenceChanged = "user.presence.changed"
	QueryGetUserStatus       = "get_user_status"
	QueryGetOnlineUsers      = "get_online_users"
)

type UserCreated struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type UserLoggedIn struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type UserLoggedOut struct {
	UserID string `json:"userId"`
}

// MessageCreated is emitted by the chat service after a message is persisted.
type MessageCreated struct {
	MessageID  string `json:"messageId"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// PresenceChanged is the normalized presence event re-emitted by the presence service.
// Username is only known on login.
type PresenceChanged struct {
	UserID   string         `json:"userId"`
	Username string         `json:"username,omitempty"`
	Status   PresenceStatus `json:"status"`
}

// GetUserStatusRequest is the request body of the get_user_status query.
// Both {"userId":"u1"} and a bare "u1" are accepted.
type GetUserStatusRequest struct {
	UserID string `json:"userId"`
}

func (r *GetUserStatusRequest) UnmarshalJSON(data []byte) error {
	var userID string
	if err := json.Unmarshal(data, &userID); err == nil {
		r.UserID = userID
		return nil
	}

	type plain GetUserStatusRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = GetUserStatusRequest(p)
	return nil
}

// UserStatusReply mirrors the reply of the get_user_status query.
type UserStatusReply struct {
	Success  bool           `json:"success"`
	Status   PresenceStatus `json:"status,omitempty"`
	LastSeen int64          `json:"lastSeen,omitempty"`
	Message  string         `json:"message,omitempty"`
	Code     string         `json:"code,omitempty"`
}

// OnlineUsersReply mirrors the reply of the get_online_users query.
type OnlineUsersReply struct {
	Success bool     `json:"success"`
	Users   []string `json:"users"`
	Message string   `json:"message,omitempty"`
	Code    string   `json:"code,omitempty"`
}
