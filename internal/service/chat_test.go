package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/repository"
)

// fakeMessageRepo is an in-memory repository.MessageRepository, same shape as
// fakeUserRepo in user_test.go.
type fakeMessageRepo struct {
	messages map[string]*model.Message
	nextID   int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*model.Message), nextID: 1}
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *model.Message) error {
	msg.ID = fmt.Sprintf("m%d", f.nextID)
	f.nextID++
	if msg.Collection == "" {
		msg.Collection = "col-" + msg.ID
	}
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	copied := *msg
	f.messages[msg.ID] = &copied
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*model.Message, error) {
	if m, ok := f.messages[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, apperror.NotFound("message", id)
}

func (f *fakeMessageRepo) List(_ context.Context, _ repository.ListOptions) ([]model.Message, error) {
	out := make([]model.Message, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeMessageRepo) ListBySender(_ context.Context, senderID string, _ repository.ListOptions) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if m.SenderID == senderID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListByCollection(_ context.Context, senderID, collection string, _ repository.ListOptions) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if m.SenderID == senderID && m.Collection == collection {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Update(_ context.Context, msg *model.Message) error {
	if _, ok := f.messages[msg.ID]; !ok {
		return apperror.NotFound("message", msg.ID)
	}
	copied := *msg
	f.messages[msg.ID] = &copied
	return nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.messages[id]; !ok {
		return apperror.NotFound("message", id)
	}
	delete(f.messages, id)
	return nil
}

var _ repository.MessageRepository = (*fakeMessageRepo)(nil)

func newTestChatService(repo *fakeMessageRepo) *ChatService {
	return NewChatService(repo, StubResponder{}, testLogger())
}

func testUser(id string, role model.Role) *model.User {
	return &model.User{ID: id, Email: id + "@example.com", Username: id, Role: role}
}

func TestSend(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)

	msg, err := s.Send(context.Background(), alice, "hello there", "")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg.SenderID != alice.ID {
		t.Errorf("Send() senderID = %q, want %q", msg.SenderID, alice.ID)
	}
	if msg.Response != "AI Response to: hello there" {
		t.Errorf("Send() response = %q", msg.Response)
	}
	if msg.Collection == "" {
		t.Error("Send() with no collection did not assign one")
	}
}

func TestSend_KeepsCollection(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)

	msg, err := s.Send(context.Background(), alice, "follow-up", "thread-1")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msg.Collection != "thread-1" {
		t.Errorf("Send() collection = %q, want %q", msg.Collection, "thread-1")
	}
}

func TestSend_Validation(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)

	if _, err := s.Send(context.Background(), alice, "   ", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Send() with blank message error = %v, want ErrValidation", err)
	}
	long := strings.Repeat("a", MaxMessageLength+1)
	if _, err := s.Send(context.Background(), alice, long, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Send() with oversized message error = %v, want ErrValidation", err)
	}
}

func TestGet_Ownership(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)
	bob := testUser("bob", model.RoleUser)
	admin := testUser("root", model.RoleAdmin)

	msg, err := s.Send(context.Background(), alice, "private", "")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if _, err := s.Get(context.Background(), alice, msg.ID); err != nil {
		t.Errorf("Get() as owner error = %v", err)
	}
	if _, err := s.Get(context.Background(), bob, msg.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Get() as other user error = %v, want ErrForbidden", err)
	}
	// Admins read messages through the list endpoint, not per-message access.
	if _, err := s.Get(context.Background(), admin, msg.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Get() as admin non-owner error = %v, want ErrForbidden", err)
	}
}

func TestGet_NotFoundBeforeForbidden(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	bob := testUser("bob", model.RoleUser)

	// A nonexistent id is 404 for every caller, never 403.
	if _, err := s.Get(context.Background(), bob, "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() on missing id error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(context.Background(), bob, "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() on missing id error = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(context.Background(), bob, "no-such-id", "x", ""); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() on missing id error = %v, want ErrNotFound", err)
	}
}

func TestListAll_AdminOnly(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)
	admin := testUser("root", model.RoleAdmin)

	if _, err := s.Send(context.Background(), alice, "one", ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if _, err := s.ListAll(context.Background(), alice, 0, 0); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("ListAll() as regular user error = %v, want ErrForbidden", err)
	}
	messages, err := s.ListAll(context.Background(), admin, 0, 0)
	if err != nil {
		t.Fatalf("ListAll() as admin error = %v", err)
	}
	if len(messages) != 1 {
		t.Errorf("ListAll() returned %d messages, want 1", len(messages))
	}
}

func TestListByUser_Scope(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)
	bob := testUser("bob", model.RoleUser)
	admin := testUser("root", model.RoleAdmin)

	if _, err := s.Send(context.Background(), alice, "mine", ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if _, err := s.ListByUser(context.Background(), alice, alice.ID, 0, 0); err != nil {
		t.Errorf("ListByUser() self error = %v", err)
	}
	if _, err := s.ListByUser(context.Background(), admin, alice.ID, 0, 0); err != nil {
		t.Errorf("ListByUser() as admin error = %v", err)
	}
	if _, err := s.ListByUser(context.Background(), bob, alice.ID, 0, 0); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("ListByUser() as other user error = %v, want ErrForbidden", err)
	}
}

func TestListCollection_ScopedToCaller(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)
	bob := testUser("bob", model.RoleUser)

	if _, err := s.Send(context.Background(), alice, "alice's", "shared-name"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if _, err := s.Send(context.Background(), bob, "bob's", "shared-name"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	messages, err := s.ListCollection(context.Background(), alice, "shared-name", 0, 0)
	if err != nil {
		t.Fatalf("ListCollection() error = %v", err)
	}
	if len(messages) != 1 || messages[0].SenderID != alice.ID {
		t.Errorf("ListCollection() leaked another user's messages: %+v", messages)
	}
}

func TestUpdate_PartialAndImmutableFields(t *testing.T) {
	repo := newFakeMessageRepo()
	s := newTestChatService(repo)
	alice := testUser("alice", model.RoleUser)

	msg, err := s.Send(context.Background(), alice, "original", "thread-1")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	originalResponse := msg.Response

	updated, err := s.Update(context.Background(), alice, msg.ID, "edited", "")
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Message != "edited" {
		t.Errorf("Update() message = %q", updated.Message)
	}
	if updated.Collection != "thread-1" {
		t.Errorf("Update() changed collection to %q with none supplied", updated.Collection)
	}
	// The stored response and owner never change on edit.
	if updated.Response != originalResponse {
		t.Errorf("Update() changed response to %q", updated.Response)
	}
	if updated.SenderID != alice.ID {
		t.Errorf("Update() changed senderID to %q", updated.SenderID)
	}
}

func TestUpdate_OwnerOnly(t *testing.T) {
	s := newTestChatService(newFakeMessageRepo())
	alice := testUser("alice", model.RoleUser)
	bob := testUser("bob", model.RoleUser)

	msg, err := s.Send(context.Background(), alice, "original", "")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if _, err := s.Update(context.Background(), bob, msg.ID, "hijacked", ""); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() as other user error = %v, want ErrForbidden", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	repo := newFakeMessageRepo()
	s := newTestChatService(repo)
	alice := testUser("alice", model.RoleUser)
	bob := testUser("bob", model.RoleUser)

	msg, err := s.Send(context.Background(), alice, "to delete", "")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if err := s.Delete(context.Background(), bob, msg.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() as other user error = %v, want ErrForbidden", err)
	}
	if err := s.Delete(context.Background(), alice, msg.ID); err != nil {
		t.Fatalf("Delete() as owner error = %v", err)
	}
	if _, ok := repo.messages[msg.ID]; ok {
		t.Error("Delete() left the message in the repository")
	}
}
