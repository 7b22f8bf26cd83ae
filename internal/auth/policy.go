package auth

import (
	"github.com/tumgpt/chat-backend/internal/model"
)

// Authorization policy: pure predicates, one per protected resource shape.
//
// These functions do no I/O and take already-loaded records, which forces the
// caller into the right check order — load the resource first (so a missing
// resource is a 404) and only then ask about ownership (403). Checking
// ownership against an id instead of a record would invite handlers to skip
// the existence check and leak which ids exist.

// CanAccessMessage reports whether user may read, update, or delete msg.
// Message access is strictly owner-only — admins do not get a per-message
// override, only the global listing below.
func CanAccessMessage(user *model.User, msg *model.Message) bool {
	if user == nil || msg == nil {
		return false
	}
	return user.ID == msg.SenderID
}

// CanListAllMessages reports whether user may list every message in the
// system regardless of owner.
func CanListAllMessages(user *model.User) bool {
	return user != nil && user.IsAdmin()
}

// CanAccessUserScope reports whether user may act within another user's
// scope (their profile, their message history): the user themself or an
// admin.
func CanAccessUserScope(user *model.User, targetUserID string) bool {
	if user == nil || targetUserID == "" {
		return false
	}
	return user.ID == targetUserID || user.IsAdmin()
}
