package auth

import (
	"testing"

	"github.com/tumgpt/chat-backend/internal/model"
)

var (
	owner = &model.User{ID: "user-1", Role: model.RoleUser}
	other = &model.User{ID: "user-2", Role: model.RoleUser}
	admin = &model.User{ID: "user-3", Role: model.RoleAdmin}
)

func TestCanAccessMessage(t *testing.T) {
	msg := &model.Message{ID: "msg-1", SenderID: "user-1"}

	tests := []struct {
		name string
		user *model.User
		want bool
	}{
		{"owner", owner, true},
		{"non-owner", other, false},
		// No admin override on per-message access.
		{"admin non-owner", admin, false},
		{"nil user", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessMessage(tt.user, msg); got != tt.want {
				t.Errorf("CanAccessMessage() = %v, want %v", got, tt.want)
			}
		})
	}

	if CanAccessMessage(owner, nil) {
		t.Error("CanAccessMessage() = true for nil message")
	}
}

func TestCanListAllMessages(t *testing.T) {
	if CanListAllMessages(owner) {
		t.Error("regular user may not list all messages")
	}
	if !CanListAllMessages(admin) {
		t.Error("admin must be able to list all messages")
	}
	if CanListAllMessages(nil) {
		t.Error("nil user may not list all messages")
	}
}

func TestCanAccessUserScope(t *testing.T) {
	tests := []struct {
		name   string
		user   *model.User
		target string
		want   bool
	}{
		{"self", owner, "user-1", true},
		{"other user", owner, "user-2", false},
		{"admin on anyone", admin, "user-1", true},
		{"nil user", nil, "user-1", false},
		{"empty target", owner, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessUserScope(tt.user, tt.target); got != tt.want {
				t.Errorf("CanAccessUserScope() = %v, want %v", got, tt.want)
			}
		})
	}
}
