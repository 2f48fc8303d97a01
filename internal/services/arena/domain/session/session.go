package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/imitation.space/internal/platform/id"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/roles"
)

// Status describes the lifecycle state of a session.
type Status int

const (
	// StatusUnspecified represents an invalid session status value.
	StatusUnspecified Status = iota
	// StatusWaiting indicates the session is formed but not all participants
	// are bound to its channel yet.
	StatusWaiting
	// StatusActive indicates the conversation window is open.
	StatusActive
	// StatusCompleted indicates the session ended and its verdict is final.
	StatusCompleted
	// StatusArchived indicates post-game delivery finished.
	StatusArchived
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusArchived:
		return "archived"
	default:
		return "unspecified"
	}
}

// ParseStatus maps a stored status label back to its enum value.
func ParseStatus(value string) Status {
	switch value {
	case "waiting":
		return StatusWaiting
	case "active":
		return StatusActive
	case "completed":
		return StatusCompleted
	case "archived":
		return StatusArchived
	default:
		return StatusUnspecified
	}
}

// Terminal reports whether no further transitions are possible from s other
// than archival bookkeeping.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusArchived
}

// CanTransitionTo enforces the strictly forward lifecycle.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusActive
	case StatusActive:
		return next == StatusCompleted
	case StatusCompleted:
		return next == StatusArchived
	default:
		return false
	}
}

// Type describes the session composition.
type Type int

const (
	// TypeUnspecified represents an invalid session type value.
	TypeUnspecified Type = iota
	// TypeDuel is a two-person session with no judge.
	TypeDuel
	// TypeJudged is the standard three-person session with one judge.
	TypeJudged
)

func (t Type) String() string {
	switch t {
	case TypeDuel:
		return "1v1"
	case TypeJudged:
		return "1v1-with-judge"
	default:
		return "unspecified"
	}
}

// ParseType maps a session type label back to its enum value.
func ParseType(value string) Type {
	switch strings.TrimSpace(value) {
	case "1v1":
		return TypeDuel
	case "1v1-with-judge":
		return TypeJudged
	default:
		return TypeUnspecified
	}
}

// RolesRequired returns the role multiset the type demands.
func (t Type) RolesRequired() roles.Counts {
	switch t {
	case TypeDuel:
		return roles.Counts{Humans: 1, AIProxies: 1}
	case TypeJudged:
		return roles.Counts{Judges: 1, Humans: 1, AIProxies: 1}
	default:
		return roles.Counts{}
	}
}

// GroupSize is the number of participants the type requires.
func (t Type) GroupSize() int {
	return t.RolesRequired().Total()
}

// EndCause records which trigger closed a session.
type EndCause int

const (
	// CauseUnspecified represents an invalid end cause value.
	CauseUnspecified EndCause = iota
	// CauseTimerExpired indicates the expiry timer fired.
	CauseTimerExpired
	// CauseManualTrigger indicates an explicit end command.
	CauseManualTrigger
)

func (c EndCause) String() string {
	switch c {
	case CauseTimerExpired:
		return "timer-expired"
	case CauseManualTrigger:
		return "manual-trigger"
	default:
		return "unspecified"
	}
}

// ParseEndCause maps a stored end cause label back to its enum value.
func ParseEndCause(value string) EndCause {
	switch value {
	case "timer-expired":
		return CauseTimerExpired
	case "manual-trigger":
		return CauseManualTrigger
	default:
		return CauseUnspecified
	}
}

var (
	// ErrEmptyCreatorID indicates a missing requestor ID.
	ErrEmptyCreatorID = errors.New("creator id is required")
	// ErrEmptyChannelID indicates a missing channel ID.
	ErrEmptyChannelID = errors.New("channel id is required")
	// ErrInvalidDuration indicates a non-positive session duration.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrInvalidType indicates an unknown session type.
	ErrInvalidType = errors.New("session type is invalid")
	// ErrInvalidTransition indicates a lifecycle transition that is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotActive indicates an operation that requires an active session.
	ErrNotActive = errors.New("session is not active")
	// ErrNotJudge indicates a vote from someone without the judge role.
	ErrNotJudge = errors.New("voter is not the session judge")
	// ErrUnknownTarget indicates a vote for someone outside the session.
	ErrUnknownTarget = errors.New("vote target is not a participant")
	// ErrTargetIsJudge indicates a vote for the judge themselves.
	ErrTargetIsJudge = errors.New("vote target holds the judge role")
	// ErrVoteAlreadyCast indicates a repeat vote under the first-vote-only policy.
	ErrVoteAlreadyCast = errors.New("judge already cast a vote")
)

// Participant is one member of a session with an assigned hidden role.
type Participant struct {
	UserID      string
	DisplayName string
	Role        roles.Role
	Nickname    string
	JoinedAt    time.Time
}

// Vote is one recorded judge vote, kept for audit even when overwritten.
type Vote struct {
	JudgeUserID  string
	TargetUserID string
	CastAt       time.Time
}

// Session is one instance of the game, bound to one pooled channel.
type Session struct {
	ID           string
	Type         Type
	Status       Status
	ChannelID    string
	CreatedBy    string
	Participants []Participant
	CreatedAt    time.Time
	Duration     time.Duration
	ExpiresAt    time.Time
	EndedAt      *time.Time // nil until the session completes
	EndCause     EndCause
	Votes        map[string]string // judge user ID -> current target user ID
	VoteLog      []Vote
}

// CreateInput describes the metadata needed to create a session.
type CreateInput struct {
	Type      Type
	ChannelID string
	CreatedBy string
	Duration  time.Duration
}

// Create builds a new session in waiting status with a generated ID.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Session, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	if input.Type != TypeDuel && input.Type != TypeJudged {
		return Session{}, ErrInvalidType
	}
	if strings.TrimSpace(input.ChannelID) == "" {
		return Session{}, ErrEmptyChannelID
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return Session{}, ErrEmptyCreatorID
	}
	if input.Duration <= 0 {
		return Session{}, ErrInvalidDuration
	}

	sessionID, err := idGenerator()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}

	return Session{
		ID:        sessionID,
		Type:      input.Type,
		Status:    StatusWaiting,
		ChannelID: strings.TrimSpace(input.ChannelID),
		CreatedBy: strings.TrimSpace(input.CreatedBy),
		CreatedAt: now().UTC(),
		Duration:  input.Duration,
		Votes:     make(map[string]string),
	}, nil
}

// Activate opens the conversation window once every participant is bound to
// the channel, and stamps the expiry deadline.
func (s *Session) Activate(now time.Time) error {
	if !s.Status.CanTransitionTo(StatusActive) {
		return fmt.Errorf("%s -> active: %w", s.Status, ErrInvalidTransition)
	}
	if len(s.Participants) != s.Type.GroupSize() {
		return fmt.Errorf("activate with %d of %d participants: %w",
			len(s.Participants), s.Type.GroupSize(), ErrInvalidTransition)
	}

	s.Status = StatusActive
	s.ExpiresAt = now.UTC().Add(s.Duration)
	return nil
}

// Complete closes the session and records what ended it.
func (s *Session) Complete(now time.Time, cause EndCause) error {
	if !s.Status.CanTransitionTo(StatusCompleted) {
		return fmt.Errorf("%s -> completed: %w", s.Status, ErrInvalidTransition)
	}

	endedAt := now.UTC()
	s.Status = StatusCompleted
	s.EndedAt = &endedAt
	s.EndCause = cause
	return nil
}

// Archive marks post-game delivery as finished.
func (s *Session) Archive() error {
	if !s.Status.CanTransitionTo(StatusArchived) {
		return fmt.Errorf("%s -> archived: %w", s.Status, ErrInvalidTransition)
	}
	s.Status = StatusArchived
	return nil
}

// RecordVote registers the judge's vote for a suspected ai-proxy.
//
// When overwrite is true the latest vote wins; otherwise only the first vote
// counts and repeats fail with ErrVoteAlreadyCast. Every accepted vote is
// appended to the audit log regardless of policy.
func (s *Session) RecordVote(judgeUserID, targetUserID string, at time.Time, overwrite bool) error {
	if s.Status != StatusActive {
		return ErrNotActive
	}

	judge, ok := s.ParticipantByUser(judgeUserID)
	if !ok || judge.Role != roles.RoleJudge {
		return ErrNotJudge
	}

	target, ok := s.ParticipantByUser(targetUserID)
	if !ok {
		return ErrUnknownTarget
	}
	if target.Role == roles.RoleJudge {
		return ErrTargetIsJudge
	}

	if _, voted := s.Votes[judgeUserID]; voted && !overwrite {
		return ErrVoteAlreadyCast
	}

	s.Votes[judgeUserID] = targetUserID
	s.VoteLog = append(s.VoteLog, Vote{
		JudgeUserID:  judgeUserID,
		TargetUserID: targetUserID,
		CastAt:       at.UTC(),
	})
	return nil
}

// ParticipantByUser finds a participant by user ID.
func (s *Session) ParticipantByUser(userID string) (Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// Judge returns the judge participant when the session type has one.
func (s *Session) Judge() (Participant, bool) {
	for _, p := range s.Participants {
		if p.Role == roles.RoleJudge {
			return p, true
		}
	}
	return Participant{}, false
}

// AIProxy returns the participant whose replies come from the
// text-generation service.
func (s *Session) AIProxy() (Participant, bool) {
	for _, p := range s.Participants {
		if p.Role == roles.RoleAIProxy {
			return p, true
		}
	}
	return Participant{}, false
}

// Clone returns a deep copy safe to hand outside the orchestrator's lock.
func (s *Session) Clone() Session {
	cloned := *s
	cloned.Participants = append([]Participant(nil), s.Participants...)
	cloned.VoteLog = append([]Vote(nil), s.VoteLog...)
	cloned.Votes = make(map[string]string, len(s.Votes))
	for judge, target := range s.Votes {
		cloned.Votes[judge] = target
	}
	if s.EndedAt != nil {
		endedAt := *s.EndedAt
		cloned.EndedAt = &endedAt
	}
	return cloned
}
