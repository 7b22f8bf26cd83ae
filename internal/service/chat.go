package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/auth"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/repository"
)

// MaxMessageLength caps the message body. Chat prompts are short; anything
// near this size is abuse or a client bug.
const MaxMessageLength = 10000

// Responder produces the reply text for a sent message.
//
// The production implementation is StubResponder — there is no model behind
// this API yet. It's still an interface so the eventual inference client
// slots in without touching the service, and so tests can assert on a fixed
// reply.
type Responder interface {
	Respond(ctx context.Context, message string) (string, error)
}

// StubResponder echoes a canned acknowledgement. Deterministic on purpose:
// the same input always yields the same response text.
type StubResponder struct{}

func (StubResponder) Respond(_ context.Context, message string) (string, error) {
	return "AI Response to: " + message, nil
}

// ChatService handles sending and managing chat messages, enforcing the
// ownership policy on every read and write.
//
// CHECK ORDER INVARIANT:
// For any per-message operation the service loads the message first and only
// then checks ownership. A nonexistent id is always 404, for every caller;
// 403 is reserved for messages that exist but belong to someone else. The
// other order would let a caller distinguish "exists but not mine" from
// "doesn't exist" by which ids return 403.
type ChatService struct {
	messages  repository.MessageRepository
	responder Responder
	logger    *slog.Logger
}

func NewChatService(messages repository.MessageRepository, responder Responder, logger *slog.Logger) *ChatService {
	return &ChatService{
		messages:  messages,
		responder: responder,
		logger:    logger,
	}
}

// Send stores a new message from the caller and attaches the generated
// response. An empty collection means "start a new conversation" — the
// repository assigns a fresh id.
func (s *ChatService) Send(ctx context.Context, caller *model.User, body, collection string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("message", "message is required")
	}
	if len(body) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	response, err := s.responder.Respond(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("service/chat: generating response: %w", err)
	}

	msg := &model.Message{
		SenderID:   caller.ID,
		Message:    body,
		Response:   response,
		Collection: strings.TrimSpace(collection),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/chat: creating message: %w", err)
	}

	s.logger.Info("message sent",
		slog.String("messageID", msg.ID),
		slog.String("userID", caller.ID),
		slog.String("collection", msg.Collection),
	)

	return msg, nil
}

// Get returns a single message if the caller owns it. 404 before 403.
func (s *ChatService) Get(ctx context.Context, caller *model.User, id string) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessMessage(caller, msg) {
		return nil, apperror.Forbidden("not permitted to access this message")
	}
	return msg, nil
}

// ListAll returns every message in the system. Admin only.
func (s *ChatService) ListAll(ctx context.Context, caller *model.User, limit, offset int) ([]model.Message, error) {
	if !auth.CanListAllMessages(caller) {
		return nil, apperror.Forbidden("admin role required")
	}

	messages, err := s.messages.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing messages: %w", err)
	}
	return messages, nil
}

// ListByUser returns one user's messages: the user themself or an admin.
func (s *ChatService) ListByUser(ctx context.Context, caller *model.User, userID string, limit, offset int) ([]model.Message, error) {
	if !auth.CanAccessUserScope(caller, userID) {
		return nil, apperror.Forbidden("not permitted to view this user's messages")
	}

	messages, err := s.messages.ListBySender(ctx, userID, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing messages for user %s: %w", userID, err)
	}
	return messages, nil
}

// ListCollection returns the caller's own messages within a collection,
// oldest first. The query is scoped to the caller's id, so no ownership
// check is needed — another user's messages in the same collection name are
// simply not selected.
func (s *ChatService) ListCollection(ctx context.Context, caller *model.User, collection string, limit, offset int) ([]model.Message, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, apperror.ValidationFailed("collection", "collection is required")
	}

	messages, err := s.messages.ListByCollection(ctx, caller.ID, collection, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/chat: listing collection %s: %w", collection, err)
	}
	return messages, nil
}

// Update modifies a message's body and/or collection, owner only. Empty
// fields are left as they were; the response text and the owner never
// change.
func (s *ChatService) Update(ctx context.Context, caller *model.User, id, body, collection string) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanAccessMessage(caller, msg) {
		return nil, apperror.Forbidden("not permitted to modify this message")
	}

	if body = strings.TrimSpace(body); body != "" {
		if len(body) > MaxMessageLength {
			return nil, apperror.ValidationFailed("message",
				fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
		}
		msg.Message = body
	}
	if collection = strings.TrimSpace(collection); collection != "" {
		msg.Collection = collection
	}

	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("service/chat: updating message %s: %w", id, err)
	}

	s.logger.Info("message updated",
		slog.String("messageID", msg.ID),
		slog.String("userID", caller.ID),
	)

	return msg, nil
}

// Delete removes a message, owner only. Same load-then-check order as Get.
func (s *ChatService) Delete(ctx context.Context, caller *model.User, id string) error {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanAccessMessage(caller, msg) {
		return apperror.Forbidden("not permitted to delete this message")
	}

	if err := s.messages.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/chat: deleting message %s: %w", id, err)
	}

	s.logger.Info("message deleted",
		slog.String("messageID", id),
		slog.String("userID", caller.ID),
	)

	return nil
}
