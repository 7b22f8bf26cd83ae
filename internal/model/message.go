package model

import "time"

// Message is a single chat exchange: the text a user sent and the generated
// response to it.
//
// SenderID references the owning User and is immutable after creation — a
// message never changes hands. Collection groups related messages into one
// conversation; if the caller doesn't supply one, the repository assigns a
// freshly generated opaque id so every message always belongs to exactly one
// collection.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	Message    string    `json:"message"`
	Response   string    `json:"response,omitempty"`
	Collection string    `json:"collection"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
