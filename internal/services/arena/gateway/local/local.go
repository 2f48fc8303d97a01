// Package local provides an in-process chat platform for development and
// testing. Channels and memberships live in memory and messages go to the
// configured log function.
package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/imitation.space/internal/services/arena/gateway"
)

type channel struct {
	name     string
	members  map[string]string // user ID -> alias, empty alias means default name
	messages []string
}

// Platform is an in-memory gateway.Platform implementation.
type Platform struct {
	mu       sync.Mutex
	channels map[string]*channel
	nextID   int
	logf     func(format string, args ...any)
}

// New creates a local platform. A nil logf discards messages.
func New(logf func(format string, args ...any)) *Platform {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Platform{
		channels: make(map[string]*channel),
		logf:     logf,
	}
}

func (p *Platform) channelLocked(channelID string) (*channel, error) {
	ch, ok := p.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s does not exist", channelID)
	}
	return ch, nil
}

// CreateChannel provisions an in-memory channel.
func (p *Platform) CreateChannel(_ context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	channelID := fmt.Sprintf("local-%d", p.nextID)
	p.channels[channelID] = &channel{name: name, members: make(map[string]string)}
	return channelID, nil
}

// DeleteChannel removes a channel and its history.
func (p *Platform) DeleteChannel(_ context.Context, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.channelLocked(channelID); err != nil {
		return err
	}
	delete(p.channels, channelID)
	return nil
}

// AddMember grants a user access to a channel.
func (p *Platform) AddMember(_ context.Context, channelID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return err
	}
	ch.members[userID] = ""
	return nil
}

// RemoveMember revokes a user's access to a channel.
func (p *Platform) RemoveMember(_ context.Context, channelID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return err
	}
	delete(ch.members, userID)
	return nil
}

// SetMemberAlias sets a user's per-channel alias.
func (p *Platform) SetMemberAlias(_ context.Context, channelID, userID, alias string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := ch.members[userID]; !ok {
		return fmt.Errorf("user %s is not a member of channel %s", userID, channelID)
	}
	ch.members[userID] = alias
	return nil
}

// ClearMemberAlias restores a user's default display name.
func (p *Platform) ClearMemberAlias(_ context.Context, channelID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return err
	}
	if _, ok := ch.members[userID]; !ok {
		return fmt.Errorf("user %s is not a member of channel %s", userID, channelID)
	}
	ch.members[userID] = ""
	return nil
}

// SendMessage appends a message to the channel and logs it.
func (p *Platform) SendMessage(_ context.Context, channelID, content string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return err
	}
	ch.messages = append(ch.messages, content)
	p.logf("[%s] %s", ch.name, content)
	return nil
}

// PurgeMessages clears the channel's message history.
func (p *Platform) PurgeMessages(_ context.Context, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return err
	}
	ch.messages = nil
	return nil
}

// ListMembers returns the channel's current members.
func (p *Platform) ListMembers(_ context.Context, channelID string) ([]gateway.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked(channelID)
	if err != nil {
		return nil, err
	}
	members := make([]gateway.Member, 0, len(ch.members))
	for userID, alias := range ch.members {
		members = append(members, gateway.Member{UserID: userID, DisplayName: alias})
	}
	return members, nil
}

// Messages returns a snapshot of a channel's history, newest last.
func (p *Platform) Messages(channelID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.channels[channelID]
	if !ok {
		return nil
	}
	return append([]string(nil), ch.messages...)
}
