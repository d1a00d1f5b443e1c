package model

import "strings"

// Kind tags the payload variant of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Valid reports whether k is one of the known message kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo:
		return true
	}
	return false
}

// KindForMIME maps a file MIME type to the message kind it produces.
// Only image/* and video/* files are supported; ok is false otherwise.
func KindForMIME(mime string) (Kind, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return KindImage, true
	case strings.HasPrefix(mime, "video/"):
		return KindVideo, true
	}
	return "", false
}

// DeliveryStatus tracks a message's delivery lifecycle. Only StatusSent is
// assigned today; delivered/read transitions are reserved for a real backend.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)
