// Package app orchestrates matchmaking, session lifecycle, and verdict
// delivery across the channel pool, the admission queue, and the chat gateway.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	ierrors "github.com/louisbranch/imitation.space/internal/errors"
	"github.com/louisbranch/imitation.space/internal/platform/id"
	"github.com/louisbranch/imitation.space/internal/platform/timeouts"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/pool"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/queue"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/roles"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/session"
	"github.com/louisbranch/imitation.space/internal/services/arena/gateway"
	"github.com/louisbranch/imitation.space/internal/services/arena/responder"
	"github.com/louisbranch/imitation.space/internal/services/arena/storage"
)

// VotePolicy controls how repeat judge votes are handled.
type VotePolicy int

const (
	// PolicyLastVoteWins lets the judge change their mind until the session ends.
	PolicyLastVoteWins VotePolicy = iota
	// PolicyFirstVoteOnly locks in the first vote and rejects repeats.
	PolicyFirstVoteOnly
)

func (p VotePolicy) String() string {
	switch p {
	case PolicyFirstVoteOnly:
		return "first-vote-only"
	default:
		return "last-vote-wins"
	}
}

// ParseVotePolicy maps a policy label to its enum value. Unknown labels fall
// back to last-vote-wins.
func ParseVotePolicy(value string) VotePolicy {
	if strings.TrimSpace(value) == "first-vote-only" {
		return PolicyFirstVoteOnly
	}
	return PolicyLastVoteWins
}

// Config tunes session formation.
type Config struct {
	SessionType     session.Type
	SessionDuration time.Duration
	VotePolicy      VotePolicy
}

// Deps carries the orchestrator's collaborators.
type Deps struct {
	Pool      *pool.Pool
	Platform  gateway.Platform
	Sessions  storage.SessionStore
	Stats     storage.StatsStore
	Responder responder.Responder
	RNG       *rand.Rand
	Clock     func() time.Time
	IDGen     func() (string, error)
	Logf      func(format string, args ...any)
}

// Snapshot is a point-in-time view of orchestrator load.
type Snapshot struct {
	QueueLength    int
	ActiveSessions int
	PoolAvailable  int
	PoolCapacity   int
}

type sessionState struct {
	session *session.Session
	timer   *time.Timer
	ended   atomic.Bool
	done    chan struct{} // closed once the winning end trigger archived the session
}

// Orchestrator coordinates the queue, the channel pool, and live sessions.
//
// Lock discipline: mu guards the session registry only. The pool and the
// queue carry their own locks, and no gateway or storage call happens while
// mu is held.
type Orchestrator struct {
	config    Config
	pool      *pool.Pool
	queue     *queue.Queue
	platform  gateway.Platform
	sessions  storage.SessionStore
	stats     storage.StatsStore
	responder responder.Responder
	nicknames *roles.NicknameGenerator
	rng       *rand.Rand
	clock     func() time.Time
	idGen     func() (string, error)
	logf      func(format string, args ...any)
	tracer    trace.Tracer

	mu      sync.Mutex
	live    map[string]*sessionState
	byUser  map[string]string // user ID -> live session ID
	pending map[string]bool   // users popped from the queue, not yet registered
}

// New creates an orchestrator. Pool and Platform are required; the remaining
// collaborators default to production implementations.
func New(config Config, deps Deps) (*Orchestrator, error) {
	if deps.Pool == nil {
		return nil, fmt.Errorf("channel pool is required")
	}
	if deps.Platform == nil {
		return nil, fmt.Errorf("chat platform gateway is required")
	}
	if config.SessionType == session.TypeUnspecified {
		config.SessionType = session.TypeJudged
	}
	if config.SessionDuration <= 0 {
		config.SessionDuration = 5 * time.Minute
	}
	if deps.RNG == nil {
		deps.RNG = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.IDGen == nil {
		deps.IDGen = id.NewID
	}
	if deps.Logf == nil {
		deps.Logf = func(string, ...any) {}
	}
	if deps.Responder == nil {
		deps.Responder = responder.WithFallback(nil, "", deps.Logf)
	}

	o := &Orchestrator{
		config:    config,
		pool:      deps.Pool,
		platform:  deps.Platform,
		sessions:  deps.Sessions,
		stats:     deps.Stats,
		responder: deps.Responder,
		nicknames: roles.NewNicknameGenerator(deps.RNG),
		rng:       deps.RNG,
		clock:     deps.Clock,
		idGen:     deps.IDGen,
		logf:      deps.Logf,
		tracer:    otel.Tracer("arena/app"),
		live:      make(map[string]*sessionState),
		byUser:    make(map[string]string),
		pending:   make(map[string]bool),
	}
	o.queue = queue.New(o.userInLiveSession)
	return o, nil
}

// userInLiveSession also covers the bind window: users popped from the queue
// stay excluded while their session is still forming.
func (o *Orchestrator) userInLiveSession(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.byUser[userID]; ok {
		return true
	}
	return o.pending[userID]
}

// Enqueue admits a user to the matchmaking queue and opportunistically forms
// a session when enough users are waiting. The returned session is nil when
// the user was queued without triggering formation.
func (o *Orchestrator) Enqueue(ctx context.Context, userID, displayName string) (*session.Session, error) {
	ctx, span := o.tracer.Start(ctx, "arena.Enqueue")
	defer span.End()

	if err := o.queue.Enqueue(userID, displayName); err != nil {
		return nil, mapDomainError(err)
	}
	return o.tryFormSession(ctx)
}

// Withdraw removes a user from the matchmaking queue.
func (o *Orchestrator) Withdraw(userID string) {
	o.queue.Remove(userID)
}

// CreateSession forms a session on demand from the queue's oldest entries.
// An exhausted pool is an error here; fewer queued users than a full group is
// not, and returns nil.
func (o *Orchestrator) CreateSession(ctx context.Context) (*session.Session, error) {
	ctx, span := o.tracer.Start(ctx, "arena.CreateSession")
	defer span.End()

	channelID, err := o.pool.Allocate()
	if err != nil {
		return nil, mapDomainError(err)
	}
	return o.formSession(ctx, channelID)
}

// tryFormSession is the opportunistic variant used after enqueues and channel
// releases. An exhausted pool is not an error: users keep their queue position
// until a channel frees up.
func (o *Orchestrator) tryFormSession(ctx context.Context) (*session.Session, error) {
	channelID, err := o.pool.Allocate()
	if err != nil {
		return nil, nil
	}
	return o.formSession(ctx, channelID)
}

// formSession pops a full group and stands up a session on the allocated
// channel. Either every step succeeds or every side effect is undone.
func (o *Orchestrator) formSession(ctx context.Context, channelID string) (*session.Session, error) {
	group, ok := o.queue.TryFormGroup(o.config.SessionType.GroupSize())
	if !ok {
		o.releaseChannel(channelID)
		return nil, nil
	}

	// Mark the group pending before any gateway call so none of its members
	// can re-enter the queue mid-bind.
	o.mu.Lock()
	for _, entry := range group {
		o.pending[entry.UserID] = true
	}
	o.mu.Unlock()

	sess, err := o.bindSession(ctx, channelID, group)
	if err != nil {
		o.rollbackFormation(ctx, channelID, group)
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) bindSession(ctx context.Context, channelID string, group []queue.Entry) (*session.Session, error) {
	sess, err := session.Create(session.CreateInput{
		Type:      o.config.SessionType,
		ChannelID: channelID,
		CreatedBy: group[0].UserID,
		Duration:  o.config.SessionDuration,
	}, o.clock, o.idGen)
	if err != nil {
		return nil, mapDomainError(err)
	}

	assigned, err := roles.Assign(len(group), o.config.SessionType.RolesRequired(), o.rng)
	if err != nil {
		return nil, mapDomainError(err)
	}

	// Nicknames must be unique across every non-terminal session, not just
	// within the forming group.
	usedNicknames := o.liveNicknames()
	joinedAt := o.clock().UTC()
	for i, entry := range group {
		nickname, err := o.nicknames.Generate(usedNicknames)
		if err != nil {
			return nil, mapDomainError(err)
		}
		usedNicknames[nickname] = true

		sess.Participants = append(sess.Participants, session.Participant{
			UserID:      entry.UserID,
			DisplayName: entry.DisplayName,
			Role:        assigned[i],
			Nickname:    nickname,
			JoinedAt:    joinedAt,
		})
	}

	for _, participant := range sess.Participants {
		if err := o.platform.AddMember(ctx, channelID, participant.UserID); err != nil {
			return nil, ierrors.Wrap(ierrors.CodeGatewayUnavailable,
				fmt.Sprintf("add %s to channel %s", participant.UserID, channelID), err)
		}
		if err := o.platform.SetMemberAlias(ctx, channelID, participant.UserID, participant.Nickname); err != nil {
			return nil, ierrors.Wrap(ierrors.CodeGatewayUnavailable,
				fmt.Sprintf("alias %s in channel %s", participant.UserID, channelID), err)
		}
	}

	if err := o.verifyBinding(ctx, channelID, sess.Participants); err != nil {
		return nil, err
	}

	if err := sess.Activate(o.clock()); err != nil {
		return nil, mapDomainError(err)
	}

	state := &sessionState{session: &sess, done: make(chan struct{})}

	o.mu.Lock()
	o.live[sess.ID] = state
	for _, participant := range sess.Participants {
		o.byUser[participant.UserID] = sess.ID
		delete(o.pending, participant.UserID)
	}
	// The timer is armed only after the session is registered so an expiry
	// can never race an unregistered session.
	state.timer = time.AfterFunc(o.config.SessionDuration, func() {
		if _, err := o.EndSession(context.Background(), sess.ID, session.CauseTimerExpired); err != nil {
			o.logf("expire session %s: %v", sess.ID, err)
		}
	})
	o.mu.Unlock()

	o.persistSession(ctx, &sess, nil)
	if err := o.platform.SendMessage(ctx, channelID, introMessage(&sess)); err != nil {
		o.logf("announce session %s: %v", sess.ID, err)
	}

	o.logf("session %s formed in channel %s with %d participants", sess.ID, channelID, len(group))
	return &sess, nil
}

// liveNicknames snapshots every nickname held by a live session.
func (o *Orchestrator) liveNicknames() map[string]bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	used := make(map[string]bool)
	for _, state := range o.live {
		for _, participant := range state.session.Participants {
			used[participant.Nickname] = true
		}
	}
	return used
}

// verifyBinding confirms every participant is visible in the channel before
// the session activates. Listing is idempotent, so transient gateway errors
// are retried.
func (o *Orchestrator) verifyBinding(ctx context.Context, channelID string, participants []session.Participant) error {
	members, err := gateway.RetryRead(ctx, gateway.DefaultReadAttempts, gateway.DefaultReadBackoff,
		func(ctx context.Context) ([]gateway.Member, error) {
			return o.platform.ListMembers(ctx, channelID)
		})
	if err != nil {
		return ierrors.Wrap(ierrors.CodeGatewayUnavailable,
			fmt.Sprintf("list members of channel %s", channelID), err)
	}

	present := make(map[string]bool, len(members))
	for _, member := range members {
		present[member.UserID] = true
	}
	for _, participant := range participants {
		if !present[participant.UserID] {
			return ierrors.Newf(ierrors.CodeGatewayUnavailable,
				"participant %s missing from channel %s after bind", participant.UserID, channelID)
		}
	}
	return nil
}

// rollbackFormation undoes a partially bound session: evicts any members
// already added, returns the channel to the pool, and re-enqueues the whole
// group so nobody is stranded.
func (o *Orchestrator) rollbackFormation(ctx context.Context, channelID string, group []queue.Entry) {
	for _, entry := range group {
		if err := o.platform.RemoveMember(ctx, channelID, entry.UserID); err != nil {
			o.logf("rollback remove %s from channel %s: %v", entry.UserID, channelID, err)
		}
	}
	o.releaseChannel(channelID)

	// Pending marks must drop before re-enqueue or the membership guard would
	// reject the group's own return.
	o.mu.Lock()
	for _, entry := range group {
		delete(o.pending, entry.UserID)
	}
	o.mu.Unlock()

	for _, entry := range group {
		if err := o.queue.Enqueue(entry.UserID, entry.DisplayName); err != nil {
			o.logf("rollback re-enqueue %s: %v", entry.UserID, err)
		}
	}
}

func (o *Orchestrator) releaseChannel(channelID string) {
	if err := o.pool.Release(channelID); err != nil {
		o.logf("release channel %s: %v", channelID, err)
	}
}

// RecordVote registers the judge's guess for the session's ai-proxy. Repeat
// votes follow the configured policy.
func (o *Orchestrator) RecordVote(ctx context.Context, sessionID, judgeUserID, targetUserID string) error {
	ctx, span := o.tracer.Start(ctx, "arena.RecordVote")
	defer span.End()

	o.mu.Lock()
	state, ok := o.live[sessionID]
	if !ok {
		o.mu.Unlock()
		return ierrors.Newf(ierrors.CodeSessionNotFound, "session %s not found", sessionID)
	}
	err := state.session.RecordVote(judgeUserID, targetUserID, o.clock(),
		o.config.VotePolicy == PolicyLastVoteWins)
	var snapshot session.Session
	if err == nil {
		snapshot = state.session.Clone()
	}
	o.mu.Unlock()

	if err != nil {
		return mapDomainError(err)
	}
	o.persistSession(ctx, &snapshot, nil)
	return nil
}

// EndSession closes a session exactly once, no matter how many triggers race.
// Later triggers observe the already-ended session and return it unchanged.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string, cause session.EndCause) (*session.Session, error) {
	ctx, span := o.tracer.Start(ctx, "arena.EndSession")
	defer span.End()

	o.mu.Lock()
	state, ok := o.live[sessionID]
	o.mu.Unlock()
	if !ok {
		return o.finishedSession(ctx, sessionID)
	}

	if !state.ended.CompareAndSwap(false, true) {
		// Losing trigger waits for the winner so the caller observes the
		// session already completed, never a mid-end view.
		select {
		case <-state.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		o.mu.Lock()
		snapshot := state.session.Clone()
		o.mu.Unlock()
		return &snapshot, nil
	}

	state.timer.Stop()

	o.mu.Lock()
	verdict, err := session.Tally(*state.session)
	if err == nil {
		err = state.session.Complete(o.clock(), cause)
	}
	if err != nil {
		o.mu.Unlock()
		state.ended.Store(false)
		return nil, mapDomainError(err)
	}
	for _, participant := range state.session.Participants {
		delete(o.byUser, participant.UserID)
	}
	channelID := state.session.ChannelID
	snapshot := state.session.Clone()
	o.mu.Unlock()

	// The channel goes back to the pool as soon as the session is closed so
	// cleanup latency never blocks the next match.
	o.releaseChannel(channelID)
	o.persistSession(ctx, &snapshot, &verdict)

	o.cleanupChannel(ctx, channelID, &snapshot, &verdict)

	o.mu.Lock()
	if err := state.session.Archive(); err != nil {
		o.logf("archive session %s: %v", sessionID, err)
	}
	archived := state.session.Clone()
	delete(o.live, sessionID)
	o.mu.Unlock()

	o.persistSession(ctx, &archived, &verdict)
	o.recordJudgeStats(ctx, &archived, &verdict)
	close(state.done)

	o.logf("session %s ended (%s), judge correct: %t", sessionID, cause, verdict.JudgeCorrect)

	// The freed channel may unblock users already waiting in the queue.
	if _, err := o.tryFormSession(ctx); err != nil {
		o.logf("form session after %s ended: %v", sessionID, err)
	}
	return &archived, nil
}

// finishedSession serves end requests that arrive after archival.
func (o *Orchestrator) finishedSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := o.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) cleanupChannel(ctx context.Context, channelID string, sess *session.Session, verdict *session.Verdict) {
	if err := o.platform.SendMessage(ctx, channelID, verdictMessage(sess, verdict)); err != nil {
		o.logf("announce verdict for %s: %v", sess.ID, err)
	}
	for _, participant := range sess.Participants {
		if err := o.platform.ClearMemberAlias(ctx, channelID, participant.UserID); err != nil {
			o.logf("clear alias for %s in channel %s: %v", participant.UserID, channelID, err)
		}
		if err := o.platform.RemoveMember(ctx, channelID, participant.UserID); err != nil {
			o.logf("remove %s from channel %s: %v", participant.UserID, channelID, err)
		}
	}
	if err := o.platform.PurgeMessages(ctx, channelID); err != nil {
		o.logf("purge channel %s: %v", channelID, err)
	}
}

// ProxyReply produces the ai-proxy's reply to a prompt and posts it to the
// session channel under the proxy's cover nickname.
func (o *Orchestrator) ProxyReply(ctx context.Context, sessionID, prompt string) error {
	ctx, span := o.tracer.Start(ctx, "arena.ProxyReply")
	defer span.End()

	o.mu.Lock()
	state, ok := o.live[sessionID]
	if !ok {
		o.mu.Unlock()
		return ierrors.Newf(ierrors.CodeSessionNotFound, "session %s not found", sessionID)
	}
	if state.session.Status != session.StatusActive {
		o.mu.Unlock()
		return mapDomainError(session.ErrNotActive)
	}
	proxy, hasProxy := state.session.AIProxy()
	channelID := state.session.ChannelID
	o.mu.Unlock()

	if !hasProxy {
		return mapDomainError(session.ErrNoAIProxy)
	}

	reply, err := o.responder.Reply(ctx, prompt)
	if err != nil {
		return ierrors.Wrap(ierrors.CodeGatewayUnavailable, "generate proxy reply", err)
	}
	if err := o.platform.SendMessage(ctx, channelID, fmt.Sprintf("**%s**: %s", proxy.Nickname, reply)); err != nil {
		return ierrors.Wrap(ierrors.CodeGatewayUnavailable, "post proxy reply", err)
	}
	return nil
}

// GetSession returns a copy of a session, live or archived.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	o.mu.Lock()
	if state, ok := o.live[sessionID]; ok {
		snapshot := state.session.Clone()
		o.mu.Unlock()
		return &snapshot, nil
	}
	o.mu.Unlock()

	if o.sessions == nil {
		return nil, ierrors.Newf(ierrors.CodeSessionNotFound, "session %s not found", sessionID)
	}
	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StorageCall)
	defer cancel()
	record, err := o.sessions.GetSession(storeCtx, sessionID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, ierrors.Newf(ierrors.CodeSessionNotFound, "session %s not found", sessionID)
		}
		return nil, ierrors.Wrap(ierrors.CodeUnknown, "load session", err)
	}
	sess := sessionFromRecord(record)
	return &sess, nil
}

// JudgeStats returns a user's accumulated judge accuracy.
func (o *Orchestrator) JudgeStats(ctx context.Context, userID string) (storage.JudgeStatsRecord, error) {
	if o.stats == nil {
		return storage.JudgeStatsRecord{}, ierrors.New(ierrors.CodeNotFound, "stats storage is not configured")
	}
	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StorageCall)
	defer cancel()
	stats, err := o.stats.GetJudgeStats(storeCtx, userID)
	if err != nil {
		if err == storage.ErrNotFound {
			return storage.JudgeStatsRecord{}, ierrors.Newf(ierrors.CodeNotFound, "no judge stats for %s", userID)
		}
		return storage.JudgeStatsRecord{}, ierrors.Wrap(ierrors.CodeUnknown, "load judge stats", err)
	}
	return stats, nil
}

// Status reports current orchestrator load.
func (o *Orchestrator) Status() Snapshot {
	o.mu.Lock()
	activeSessions := len(o.live)
	o.mu.Unlock()

	return Snapshot{
		QueueLength:    o.queue.Len(),
		ActiveSessions: activeSessions,
		PoolAvailable:  o.pool.Available(),
		PoolCapacity:   o.pool.Capacity(),
	}
}

// Shutdown stops every expiry timer so no session end fires during teardown.
// Live sessions are left in place for a future restart to recover from
// storage.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, state := range o.live {
		if state.timer != nil {
			state.timer.Stop()
		}
	}
}

// persistSession writes a session snapshot. Persistence is best effort and
// never blocks lifecycle progress.
func (o *Orchestrator) persistSession(ctx context.Context, sess *session.Session, verdict *session.Verdict) {
	if o.sessions == nil {
		return
	}
	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StorageCall)
	defer cancel()
	if err := o.sessions.PutSession(storeCtx, recordFromSession(sess, verdict)); err != nil {
		o.logf("persist session %s: %v", sess.ID, err)
	}
}

func (o *Orchestrator) recordJudgeStats(ctx context.Context, sess *session.Session, verdict *session.Verdict) {
	if o.stats == nil {
		return
	}
	judge, ok := sess.Judge()
	if !ok {
		return
	}
	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StorageCall)
	defer cancel()
	if err := o.stats.IncrementJudgeStats(storeCtx, judge.UserID, verdict.JudgeCorrect); err != nil {
		o.logf("record judge stats for %s: %v", judge.UserID, err)
	}
}

func recordFromSession(sess *session.Session, verdict *session.Verdict) storage.SessionRecord {
	record := storage.SessionRecord{
		ID:        sess.ID,
		Type:      sess.Type.String(),
		Status:    sess.Status.String(),
		ChannelID: sess.ChannelID,
		CreatedBy: sess.CreatedBy,
		Duration:  sess.Duration,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
		EndedAt:   sess.EndedAt,
	}
	if sess.EndCause != session.CauseUnspecified {
		record.EndCause = sess.EndCause.String()
	}
	if verdict != nil {
		record.JudgeCorrect = verdict.JudgeCorrect
		record.VotedTargetID = verdict.VotedTargetID
		record.ActualAIProxyID = verdict.ActualAIProxyID
	}
	for _, participant := range sess.Participants {
		record.Participants = append(record.Participants, storage.ParticipantRecord{
			UserID:      participant.UserID,
			DisplayName: participant.DisplayName,
			Role:        participant.Role.String(),
			Nickname:    participant.Nickname,
			JoinedAt:    participant.JoinedAt,
		})
	}
	for _, vote := range sess.VoteLog {
		record.Votes = append(record.Votes, storage.VoteRecord{
			JudgeUserID:  vote.JudgeUserID,
			TargetUserID: vote.TargetUserID,
			CastAt:       vote.CastAt,
		})
	}
	return record
}

func sessionFromRecord(record storage.SessionRecord) session.Session {
	sess := session.Session{
		ID:        record.ID,
		Type:      session.ParseType(record.Type),
		Status:    session.ParseStatus(record.Status),
		ChannelID: record.ChannelID,
		CreatedBy: record.CreatedBy,
		CreatedAt: record.CreatedAt,
		Duration:  record.Duration,
		ExpiresAt: record.ExpiresAt,
		EndedAt:   record.EndedAt,
		EndCause:  session.ParseEndCause(record.EndCause),
		Votes:     make(map[string]string),
	}
	for _, participant := range record.Participants {
		sess.Participants = append(sess.Participants, session.Participant{
			UserID:      participant.UserID,
			DisplayName: participant.DisplayName,
			Role:        roles.ParseRole(participant.Role),
			Nickname:    participant.Nickname,
			JoinedAt:    participant.JoinedAt,
		})
	}
	for _, vote := range record.Votes {
		sess.Votes[vote.JudgeUserID] = vote.TargetUserID
		sess.VoteLog = append(sess.VoteLog, session.Vote{
			JudgeUserID:  vote.JudgeUserID,
			TargetUserID: vote.TargetUserID,
			CastAt:       vote.CastAt,
		})
	}
	return sess
}
