package domain

const (
	// PushEvent is the event name every notification is pushed under.
	PushEvent = "notification"
	// ConnectionStatusEvent acknowledges an admitted connection.
	ConnectionStatusEvent = "connection_status"

	NotificationTypeNewMessage     = "new_message"
	NotificationTypePresenceChange = "presence_change"

	PreviewLength   = 30
	PreviewEllipsis = "..."
)

// Notification is the payload pushed to client connections.
type Notification struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type MessageNotification struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
	Preview   string `json:"preview"`
}

type PresenceNotification struct {
	UserID   string         `json:"userId"`
	Username string         `json:"username,omitempty"`
	Status   PresenceStatus `json:"status"`
}

type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	UserID    string `json:"userId"`
}

// Preview keeps the first PreviewLength characters of content and marks the cut
// with PreviewEllipsis. Content at or under the limit is returned unmodified.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength]) + PreviewEllipsis
}

func NewMessageNotification(evt MessageCreated) Notification {
	return Notification{
		Type: NotificationTypeNewMessage,
		Data: MessageNotification{
			MessageID: evt.MessageID,
			SenderID:  evt.SenderID,
			Preview:   Preview(evt.Content),
		},
	}
}

func NewPresenceNotification(evt PresenceChanged) Notification {
	return Notification{
		Type: NotificationTypePresenceChange,
		Data: PresenceNotification{
			UserID:   evt.UserID,
			Username: evt.Username,
			Status:   evt.Status,
		},
	}
}
