// Package storage declares the durable records and store interfaces for
// finalized and in-flight session outcomes. Persistence is best effort: the
// orchestrator never lets a storage failure block channel release.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ParticipantRecord is one session member as persisted.
type ParticipantRecord struct {
	UserID      string
	DisplayName string
	Role        string
	Nickname    string
	JoinedAt    time.Time
}

// VoteRecord is one judge vote kept for audit, including overwritten votes.
type VoteRecord struct {
	JudgeUserID  string
	TargetUserID string
	CastAt       time.Time
}

// SessionRecord mirrors the session entity plus its vote history.
type SessionRecord struct {
	ID              string
	Type            string
	Status          string
	ChannelID       string
	CreatedBy       string
	Duration        time.Duration
	CreatedAt       time.Time
	ExpiresAt       time.Time
	EndedAt         *time.Time // nil until the session completes
	EndCause        string
	JudgeCorrect    bool
	VotedTargetID   string
	ActualAIProxyID string
	Participants    []ParticipantRecord
	Votes           []VoteRecord
}

// JudgeStatsRecord tracks a user's accuracy across judged sessions.
type JudgeStatsRecord struct {
	UserID         string
	TestsTaken     int64
	CorrectGuesses int64
}

// SessionStore persists session records keyed by session identifier.
type SessionStore interface {
	// PutSession upserts the record together with its participants and votes.
	PutSession(ctx context.Context, record SessionRecord) error
	// GetSession fetches one record or ErrNotFound.
	GetSession(ctx context.Context, id string) (SessionRecord, error)
	// ListRecentSessions returns up to limit records, newest first.
	ListRecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
}

// StatsStore persists per-user judge accuracy counters.
type StatsStore interface {
	IncrementJudgeStats(ctx context.Context, userID string, correct bool) error
	GetJudgeStats(ctx context.Context, userID string) (JudgeStatsRecord, error)
}
