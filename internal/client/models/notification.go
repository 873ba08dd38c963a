package models

import "time"

type NotificationType string

const (
	NotificationShare   NotificationType = "share"
	NotificationRole    NotificationType = "role"
	NotificationUnshare NotificationType = "unshare"
	NotificationDelete  NotificationType = "delete"
	NotificationArchive NotificationType = "archive"
	NotificationEdit    NotificationType = "edit"
	NotificationInfo    NotificationType = "info"
)

// Notification is a client-only entry generated from a realtime event.
type Notification struct {
	ID      string
	Message string
	Type    NotificationType
	Time    time.Time
	Read    bool
	NoteID  string
}
