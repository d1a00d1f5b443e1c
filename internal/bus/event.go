package bus

import "time"

// Event kinds published by the store and the upload pipeline. Subscribers
// filter by prefix, e.g. "store." or "upload.".
const (
	KindAuthChanged     = "store.auth_changed"
	KindThemeChanged    = "store.theme_changed"
	KindChatsChanged    = "store.chats_changed"
	KindActiveChat      = "store.active_chat_changed"
	KindMessageAppended = "store.message_appended"

	KindUploadProgress  = "upload.progress"
	KindUploadCompleted = "upload.completed"
	KindUploadCancelled = "upload.cancelled"
	KindUploadFailed    = "upload.failed"
)

// Event is a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// New builds an event stamped with the current time.
func New(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}
