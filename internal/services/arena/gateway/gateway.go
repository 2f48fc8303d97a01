// Package gateway declares the chat-platform capabilities the orchestrator
// consumes. Every call crosses a network boundary: it can be slow, fail
// transiently, or be rate-limited, so callers must never hold in-memory locks
// across one.
package gateway

import "context"

// Member is one platform user inside a channel.
type Member struct {
	UserID      string
	DisplayName string
}

// Platform is the injected chat-platform capability set.
type Platform interface {
	// CreateChannel provisions a communication channel and returns its ID.
	CreateChannel(ctx context.Context, name string) (string, error)
	// DeleteChannel destroys a channel. Not idempotent on most platforms.
	DeleteChannel(ctx context.Context, channelID string) error
	// AddMember grants a user access to a channel.
	AddMember(ctx context.Context, channelID, userID string) error
	// RemoveMember revokes a user's access to a channel.
	RemoveMember(ctx context.Context, channelID, userID string) error
	// SetMemberAlias sets a user's per-channel display alias.
	SetMemberAlias(ctx context.Context, channelID, userID, alias string) error
	// ClearMemberAlias restores a user's default display name.
	ClearMemberAlias(ctx context.Context, channelID, userID string) error
	// SendMessage posts a structured message to a channel.
	SendMessage(ctx context.Context, channelID, content string) error
	// PurgeMessages bulk-deletes recent messages so a reused channel starts clean.
	PurgeMessages(ctx context.Context, channelID string) error
	// ListMembers fetches the channel's current member list.
	ListMembers(ctx context.Context, channelID string) ([]Member, error)
}
