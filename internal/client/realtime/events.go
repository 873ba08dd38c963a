package realtime

// Inbound events forwarded to subscribers.
const (
	EventNewSharedNote                = "newSharedNote"
	EventYourShareRoleUpdated         = "yourShareRoleUpdated"
	EventNoteUnshared                 = "noteUnshared"
	EventNoteSharingConfirmation      = "noteSharingConfirmation"
	EventNoteSharingSettingsChanged   = "noteSharingSettingsChanged"
	EventNotifyNoteDeleted            = "notifyNoteDeleted"
	EventNotifyNoteArchivedUnarchived = "notifyNoteArchivedUnarchived"
	EventNotesListUpdated             = "notesListUpdated"
	EventNoteUpdateSuccess            = "noteUpdateSuccess"
	EventNotifyNoteUpdatedByOther     = "notifyNoteUpdatedByOther"
	EventNoteDetailsUpdated           = "noteDetailsUpdated"
	EventNoteSharingUpdated           = "noteSharingUpdated"
	EventNotesListGlobalUpdate        = "notesListGlobalUpdate"
	EventNoteEditFinishedByOtherUser  = "noteEditFinishedByOtherUser"
)

// Outbound events.
const (
	EventRegisterUser            = "registerUser"
	EventNoteDeleted             = "noteDeleted"
	EventUserFinishedEditingNote = "userFinishedEditingNote"
	EventUserStartedEditingNote  = "userStartedEditingNote"
	EventUserStoppedEditingNote  = "userStoppedEditingNote"
)

var inbound = map[string]struct{}{
	EventNewSharedNote:                {},
	EventYourShareRoleUpdated:         {},
	EventNoteUnshared:                 {},
	EventNoteSharingConfirmation:      {},
	EventNoteSharingSettingsChanged:   {},
	EventNotifyNoteDeleted:            {},
	EventNotifyNoteArchivedUnarchived: {},
	EventNotesListUpdated:             {},
	EventNoteUpdateSuccess:            {},
	EventNotifyNoteUpdatedByOther:     {},
	EventNoteDetailsUpdated:           {},
	EventNoteSharingUpdated:           {},
	EventNotesListGlobalUpdate:        {},
	EventNoteEditFinishedByOtherUser:  {},
}

// IsInbound reports whether name is one of the events forwarded to
// subscribers.
func IsInbound(name string) bool {
	_, ok := inbound[name]
	return ok
}

// isPresence marks best-effort outbound events subject to rate limiting.
func isPresence(name string) bool {
	return name == EventUserStartedEditingNote || name == EventUserStoppedEditingNote
}
