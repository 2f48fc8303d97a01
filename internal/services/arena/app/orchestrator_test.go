package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	ierrors "github.com/louisbranch/imitation.space/internal/errors"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/pool"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/roles"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/session"
	"github.com/louisbranch/imitation.space/internal/services/arena/gateway"
	"github.com/louisbranch/imitation.space/internal/services/arena/storage"
)

type fakePlatform struct {
	mu          sync.Mutex
	members     map[string][]string
	aliases     map[string]map[string]string
	messages    map[string][]string
	purged      map[string]int
	failAddFor  string
	addAttempts int
	onAddMember func(channelID, userID string)
	purgeDelay  time.Duration
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members:  make(map[string][]string),
		aliases:  make(map[string]map[string]string),
		messages: make(map[string][]string),
		purged:   make(map[string]int),
	}
}

func (f *fakePlatform) CreateChannel(_ context.Context, name string) (string, error) {
	return "channel-" + name, nil
}

func (f *fakePlatform) DeleteChannel(context.Context, string) error { return nil }

func (f *fakePlatform) AddMember(_ context.Context, channelID, userID string) error {
	if f.onAddMember != nil {
		f.onAddMember(channelID, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addAttempts++
	if f.failAddFor != "" && userID == f.failAddFor {
		return fmt.Errorf("platform rejected member %s", userID)
	}
	f.members[channelID] = append(f.members[channelID], userID)
	return nil
}

func (f *fakePlatform) RemoveMember(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.members[channelID]
	for i, member := range current {
		if member == userID {
			f.members[channelID] = append(current[:i], current[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakePlatform) SetMemberAlias(_ context.Context, channelID, userID, alias string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.aliases[channelID] == nil {
		f.aliases[channelID] = make(map[string]string)
	}
	f.aliases[channelID][userID] = alias
	return nil
}

func (f *fakePlatform) ClearMemberAlias(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.aliases[channelID], userID)
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[channelID] = append(f.messages[channelID], content)
	return nil
}

func (f *fakePlatform) PurgeMessages(_ context.Context, channelID string) error {
	if f.purgeDelay > 0 {
		time.Sleep(f.purgeDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged[channelID]++
	return nil
}

func (f *fakePlatform) ListMembers(_ context.Context, channelID string) ([]gateway.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []gateway.Member
	for _, userID := range f.members[channelID] {
		members = append(members, gateway.Member{UserID: userID})
	}
	return members, nil
}

func (f *fakePlatform) memberCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[channelID])
}

func (f *fakePlatform) lastMessage(channelID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages[channelID]) == 0 {
		return ""
	}
	return f.messages[channelID][len(f.messages[channelID])-1]
}

type fakeSessionStore struct {
	mu      sync.Mutex
	records map[string]storage.SessionRecord
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{records: make(map[string]storage.SessionRecord)}
}

func (f *fakeSessionStore) PutSession(_ context.Context, record storage.SessionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[record.ID] = record
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, id string) (storage.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	return record, nil
}

func (f *fakeSessionStore) ListRecentSessions(context.Context, int) ([]storage.SessionRecord, error) {
	return nil, nil
}

type fakeStatsStore struct {
	mu    sync.Mutex
	stats map[string]storage.JudgeStatsRecord
}

func newFakeStatsStore() *fakeStatsStore {
	return &fakeStatsStore{stats: make(map[string]storage.JudgeStatsRecord)}
}

func (f *fakeStatsStore) IncrementJudgeStats(_ context.Context, userID string, correct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.stats[userID]
	record.UserID = userID
	record.TestsTaken++
	if correct {
		record.CorrectGuesses++
	}
	f.stats[userID] = record
	return nil
}

func (f *fakeStatsStore) GetJudgeStats(_ context.Context, userID string) (storage.JudgeStatsRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.stats[userID]
	if !ok {
		return storage.JudgeStatsRecord{}, storage.ErrNotFound
	}
	return record, nil
}

type staticResponder struct{ reply string }

func (s staticResponder) Reply(context.Context, string) (string, error) {
	return s.reply, nil
}

type fixture struct {
	orchestrator *Orchestrator
	platform     *fakePlatform
	sessions     *fakeSessionStore
	stats        *fakeStatsStore
}

func newFixture(t *testing.T, channels []string, config Config) *fixture {
	t.Helper()

	channelPool, err := pool.New(channels)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}

	platform := newFakePlatform()
	sessions := newFakeSessionStore()
	stats := newFakeStatsStore()

	counter := 0
	orchestrator, err := New(config, Deps{
		Pool:      channelPool,
		Platform:  platform,
		Sessions:  sessions,
		Stats:     stats,
		Responder: staticResponder{reply: "thinking about it"},
		RNG:       rand.New(rand.NewSource(42)),
		Clock:     func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
		IDGen: func() (string, error) {
			counter++
			return fmt.Sprintf("session-%d", counter), nil
		},
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	t.Cleanup(orchestrator.Shutdown)

	return &fixture{orchestrator: orchestrator, platform: platform, sessions: sessions, stats: stats}
}

func enqueueGroup(t *testing.T, f *fixture, userIDs ...string) *session.Session {
	t.Helper()
	var formed *session.Session
	for _, userID := range userIDs {
		sess, err := f.orchestrator.Enqueue(context.Background(), userID, "Name "+userID)
		if err != nil {
			t.Fatalf("enqueue %s: %v", userID, err)
		}
		formed = sess
	}
	return formed
}

func judgeOf(t *testing.T, sess *session.Session) session.Participant {
	t.Helper()
	judge, ok := sess.Judge()
	if !ok {
		t.Fatal("session has no judge")
	}
	return judge
}

func proxyOf(t *testing.T, sess *session.Session) session.Participant {
	t.Helper()
	proxy, ok := sess.AIProxy()
	if !ok {
		t.Fatal("session has no ai-proxy")
	}
	return proxy
}

func TestEnqueueFormsSessionAtGroupSize(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})

	for _, userID := range []string{"user-a", "user-b"} {
		sess, err := f.orchestrator.Enqueue(context.Background(), userID, userID)
		if err != nil {
			t.Fatalf("enqueue %s: %v", userID, err)
		}
		if sess != nil {
			t.Fatalf("session formed early after %s", userID)
		}
	}

	sess, err := f.orchestrator.Enqueue(context.Background(), "user-c", "user-c")
	if err != nil {
		t.Fatalf("enqueue user-c: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session at group size")
	}
	if sess.Status != session.StatusActive {
		t.Fatalf("status = %s, want active", sess.Status)
	}
	if sess.ChannelID != "arena-1" {
		t.Fatalf("channel = %s", sess.ChannelID)
	}
	if len(sess.Participants) != 3 {
		t.Fatalf("participants = %d", len(sess.Participants))
	}

	// Exactly one judge, one human, one ai-proxy, each with a distinct nickname.
	byRole := make(map[roles.Role]int)
	seenNicknames := make(map[string]bool)
	for _, participant := range sess.Participants {
		byRole[participant.Role]++
		if seenNicknames[participant.Nickname] {
			t.Fatalf("duplicate nickname %q", participant.Nickname)
		}
		seenNicknames[participant.Nickname] = true
	}
	if byRole[roles.RoleJudge] != 1 || byRole[roles.RoleHuman] != 1 || byRole[roles.RoleAIProxy] != 1 {
		t.Fatalf("role distribution = %v", byRole)
	}

	if f.platform.memberCount("arena-1") != 3 {
		t.Fatalf("channel members = %d", f.platform.memberCount("arena-1"))
	}
	if !strings.Contains(f.platform.lastMessage("arena-1"), "imitation test") {
		t.Fatalf("intro not announced: %q", f.platform.lastMessage("arena-1"))
	}

	status := f.orchestrator.Status()
	if status.QueueLength != 0 || status.ActiveSessions != 1 || status.PoolAvailable != 0 {
		t.Fatalf("status = %+v", status)
	}
}

func TestExhaustedPoolKeepsUsersQueued(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})

	first := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	if first == nil {
		t.Fatal("expected first session")
	}

	second := enqueueGroup(t, f, "user-d", "user-e", "user-f")
	if second != nil {
		t.Fatal("second session formed with exhausted pool")
	}

	status := f.orchestrator.Status()
	if status.QueueLength != 3 || status.PoolAvailable != 0 {
		t.Fatalf("status = %+v", status)
	}

	// Ending the first session frees the channel and matches the waiting group.
	if _, err := f.orchestrator.EndSession(context.Background(), first.ID, session.CauseManualTrigger); err != nil {
		t.Fatalf("end session: %v", err)
	}

	status = f.orchestrator.Status()
	if status.QueueLength != 0 || status.ActiveSessions != 1 {
		t.Fatalf("status after end = %+v", status)
	}
}

func TestEnqueueRejectsDuplicateAndInSession(t *testing.T) {
	f := newFixture(t, []string{"arena-1", "arena-2"}, Config{})

	if _, err := f.orchestrator.Enqueue(context.Background(), "user-a", "A"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := f.orchestrator.Enqueue(context.Background(), "user-a", "A"); !ierrors.IsCode(err, ierrors.CodeQueueAlreadyQueued) {
		t.Fatalf("err = %v, want already queued", err)
	}
	if _, err := f.orchestrator.Enqueue(context.Background(), "", "A"); !ierrors.IsCode(err, ierrors.CodeQueueEmptyUserID) {
		t.Fatalf("err = %v, want empty user id", err)
	}

	sess := enqueueGroup(t, f, "user-b", "user-c")
	if sess == nil {
		t.Fatal("expected session")
	}
	if _, err := f.orchestrator.Enqueue(context.Background(), "user-b", "B"); !ierrors.IsCode(err, ierrors.CodeQueueAlreadyInSession) {
		t.Fatalf("err = %v, want already in session", err)
	}
}

func TestBindFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	f.platform.failAddFor = "user-c"

	for _, userID := range []string{"user-a", "user-b"} {
		if _, err := f.orchestrator.Enqueue(context.Background(), userID, userID); err != nil {
			t.Fatalf("enqueue %s: %v", userID, err)
		}
	}
	if _, err := f.orchestrator.Enqueue(context.Background(), "user-c", "user-c"); !ierrors.IsCode(err, ierrors.CodeGatewayUnavailable) {
		t.Fatalf("err = %v, want gateway unavailable", err)
	}

	status := f.orchestrator.Status()
	if status.ActiveSessions != 0 {
		t.Fatalf("active sessions = %d", status.ActiveSessions)
	}
	if status.PoolAvailable != 1 {
		t.Fatalf("pool available = %d, want channel returned", status.PoolAvailable)
	}
	if status.QueueLength != 3 {
		t.Fatalf("queue length = %d, want group re-enqueued", status.QueueLength)
	}
	if f.platform.memberCount("arena-1") != 0 {
		t.Fatalf("members = %d, want partial binds undone", f.platform.memberCount("arena-1"))
	}

	// Once the platform recovers the same group forms a session.
	f.platform.failAddFor = ""
	sess, err := f.orchestrator.Enqueue(context.Background(), "user-d", "user-d")
	if err != nil {
		t.Fatalf("enqueue user-d: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session after recovery")
	}
	if sess.CreatedBy != "user-a" {
		t.Fatalf("created by = %s, want original head of queue", sess.CreatedBy)
	}
}

func TestEndSessionExactlyOnce(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")

	first, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if first.Status != session.StatusArchived {
		t.Fatalf("status = %s, want archived", first.Status)
	}
	if first.EndCause != session.CauseManualTrigger {
		t.Fatalf("cause = %s", first.EndCause)
	}

	// A racing timer expiry arrives after the manual end and must not change
	// the recorded outcome.
	second, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseTimerExpired)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if second.EndCause != session.CauseManualTrigger {
		t.Fatalf("cause after race = %s, want manual", second.EndCause)
	}
	if second.Status != session.StatusArchived {
		t.Fatalf("status after race = %s", second.Status)
	}

	status := f.orchestrator.Status()
	if status.PoolAvailable != 1 || status.ActiveSessions != 0 {
		t.Fatalf("status = %+v, want channel released once", status)
	}
	if f.platform.purged["arena-1"] != 1 {
		t.Fatalf("purges = %d, want exactly one cleanup", f.platform.purged["arena-1"])
	}
}

func TestEndSessionRevealsVerdictAndRecordsStats(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	judge := judgeOf(t, sess)
	proxy := proxyOf(t, sess)

	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, proxy.UserID); err != nil {
		t.Fatalf("record vote: %v", err)
	}

	ended, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if ended.Status != session.StatusArchived {
		t.Fatalf("status = %s", ended.Status)
	}

	stats, err := f.orchestrator.JudgeStats(context.Background(), judge.UserID)
	if err != nil {
		t.Fatalf("judge stats: %v", err)
	}
	if stats.TestsTaken != 1 || stats.CorrectGuesses != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	record, err := f.sessions.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if record.Status != "archived" || !record.JudgeCorrect || record.ActualAIProxyID != proxy.UserID {
		t.Fatalf("record = %+v", record)
	}

	found := false
	f.platform.mu.Lock()
	for _, message := range f.platform.messages["arena-1"] {
		if strings.Contains(message, "The machine was") {
			found = true
		}
	}
	f.platform.mu.Unlock()
	if !found {
		t.Fatal("verdict never announced")
	}
}

func TestLastVoteWinsChangesVerdict(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{VotePolicy: PolicyLastVoteWins})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	judge := judgeOf(t, sess)
	proxy := proxyOf(t, sess)

	var human session.Participant
	for _, participant := range sess.Participants {
		if participant.Role == roles.RoleHuman {
			human = participant
		}
	}

	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, human.UserID); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, proxy.UserID); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	if _, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger); err != nil {
		t.Fatalf("end session: %v", err)
	}

	record, err := f.sessions.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("stored record: %v", err)
	}
	if !record.JudgeCorrect || record.VotedTargetID != proxy.UserID {
		t.Fatalf("record = %+v, want last vote to decide", record)
	}
	if len(record.Votes) != 2 {
		t.Fatalf("vote log = %d entries, want both kept for audit", len(record.Votes))
	}
}

func TestFirstVoteOnlyRejectsRepeat(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{VotePolicy: PolicyFirstVoteOnly})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	judge := judgeOf(t, sess)
	proxy := proxyOf(t, sess)

	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, proxy.UserID); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, proxy.UserID)
	if !ierrors.IsCode(err, ierrors.CodeVoteAlreadyCast) {
		t.Fatalf("err = %v, want vote already cast", err)
	}
}

func TestRecordVoteValidation(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	judge := judgeOf(t, sess)
	proxy := proxyOf(t, sess)

	if err := f.orchestrator.RecordVote(context.Background(), "missing", judge.UserID, proxy.UserID); !ierrors.IsCode(err, ierrors.CodeSessionNotFound) {
		t.Fatalf("err = %v, want session not found", err)
	}
	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, proxy.UserID, judge.UserID); !ierrors.IsCode(err, ierrors.CodeVoteNotJudge) {
		t.Fatalf("err = %v, want not judge", err)
	}
	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, "stranger"); !ierrors.IsCode(err, ierrors.CodeVoteUnknownTarget) {
		t.Fatalf("err = %v, want unknown target", err)
	}
	if err := f.orchestrator.RecordVote(context.Background(), sess.ID, judge.UserID, judge.UserID); !ierrors.IsCode(err, ierrors.CodeVoteTargetIsJudge) {
		t.Fatalf("err = %v, want target is judge", err)
	}
}

func TestNoVoteIsJudgeLoss(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	judge := judgeOf(t, sess)

	if _, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger); err != nil {
		t.Fatalf("end session: %v", err)
	}

	stats, err := f.orchestrator.JudgeStats(context.Background(), judge.UserID)
	if err != nil {
		t.Fatalf("judge stats: %v", err)
	}
	if stats.TestsTaken != 1 || stats.CorrectGuesses != 0 {
		t.Fatalf("stats = %+v, want a counted loss", stats)
	}
}

func TestTimerExpiryEndsSession(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{SessionDuration: 20 * time.Millisecond})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.orchestrator.Status().ActiveSessions == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	archived, err := f.orchestrator.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if archived.Status != session.StatusArchived {
		t.Fatalf("status = %s, want archived after expiry", archived.Status)
	}
	if archived.EndCause != session.CauseTimerExpired {
		t.Fatalf("cause = %s, want timer expiry", archived.EndCause)
	}

	// A manual end after expiry observes the finished session.
	ended, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger)
	if err != nil {
		t.Fatalf("manual end after expiry: %v", err)
	}
	if ended.EndCause != session.CauseTimerExpired {
		t.Fatalf("cause = %s, want expiry preserved", ended.EndCause)
	}
}

func TestProxyReplyPostsUnderNickname(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	proxy := proxyOf(t, sess)

	if err := f.orchestrator.ProxyReply(context.Background(), sess.ID, "what is your favorite food?"); err != nil {
		t.Fatalf("proxy reply: %v", err)
	}

	message := f.platform.lastMessage("arena-1")
	if !strings.Contains(message, proxy.Nickname) || !strings.Contains(message, "thinking about it") {
		t.Fatalf("message = %q", message)
	}
}

func TestGetSessionFallsBackToStorage(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")

	if _, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger); err != nil {
		t.Fatalf("end session: %v", err)
	}

	got, err := f.orchestrator.GetSession(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("get archived session: %v", err)
	}
	if got.Status != session.StatusArchived || got.ID != sess.ID {
		t.Fatalf("session = %+v", got)
	}

	if _, err := f.orchestrator.GetSession(context.Background(), "missing"); !ierrors.IsCode(err, ierrors.CodeSessionNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateSessionOnDemand(t *testing.T) {
	f := newFixture(t, []string{"arena-1", "arena-2"}, Config{})

	// Not enough users waiting is a quiet no-op.
	sess, err := f.orchestrator.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create with empty queue: %v", err)
	}
	if sess != nil {
		t.Fatal("session formed from empty queue")
	}
	if f.orchestrator.Status().PoolAvailable != 2 {
		t.Fatal("channel leaked on no-op formation")
	}

	enqueueGroup(t, f, "user-a", "user-b", "user-c")
	enqueueGroup(t, f, "user-d", "user-e", "user-f")

	// Both channels are now allocated, so explicit formation reports exhaustion.
	if _, err := f.orchestrator.Enqueue(context.Background(), "user-g", "G"); err != nil {
		t.Fatalf("enqueue user-g: %v", err)
	}
	if _, err := f.orchestrator.CreateSession(context.Background()); !ierrors.IsCode(err, ierrors.CodePoolExhausted) {
		t.Fatalf("err = %v, want pool exhausted", err)
	}
}

func TestNicknamesUniqueAcrossLiveSessions(t *testing.T) {
	channels := make([]string, 20)
	for i := range channels {
		channels[i] = fmt.Sprintf("arena-%d", i+1)
	}
	f := newFixture(t, channels, Config{})

	seen := make(map[string]string) // nickname -> session ID
	for i := 0; i < 20; i++ {
		sess := enqueueGroup(t, f,
			fmt.Sprintf("user-%d-a", i),
			fmt.Sprintf("user-%d-b", i),
			fmt.Sprintf("user-%d-c", i))
		if sess == nil {
			t.Fatalf("group %d did not form", i)
		}
		for _, participant := range sess.Participants {
			if holder, taken := seen[participant.Nickname]; taken {
				t.Fatalf("nickname %q used by live sessions %s and %s",
					participant.Nickname, holder, sess.ID)
			}
			seen[participant.Nickname] = sess.ID
		}
	}
	if len(seen) != 60 {
		t.Fatalf("nicknames = %d, want 60", len(seen))
	}
}

func TestEnqueueRejectedDuringBindWindow(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})

	// A group member tries to slip back into the queue while the gateway is
	// still binding the group.
	var bindWindowErr error
	fired := false
	f.platform.onAddMember = func(_, userID string) {
		if fired {
			return
		}
		fired = true
		_, bindWindowErr = f.orchestrator.Enqueue(context.Background(), "user-c", "C")
	}

	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")
	if sess == nil {
		t.Fatal("expected session")
	}
	if !fired {
		t.Fatal("bind window enqueue never attempted")
	}
	if !ierrors.IsCode(bindWindowErr, ierrors.CodeQueueAlreadyInSession) {
		t.Fatalf("err = %v, want already in session during bind", bindWindowErr)
	}
	if f.orchestrator.Status().QueueLength != 0 {
		t.Fatal("participant re-entered the queue mid-bind")
	}
}

func TestEndSessionLoserObservesCompletedSession(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})
	f.platform.purgeDelay = 100 * time.Millisecond
	sess := enqueueGroup(t, f, "user-a", "user-b", "user-c")

	winner := make(chan *session.Session, 1)
	go func() {
		ended, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseManualTrigger)
		if err != nil {
			t.Errorf("manual end: %v", err)
		}
		winner <- ended
	}()

	// Give the manual end time to win the guard, then race a timer trigger
	// into its cleanup window.
	time.Sleep(30 * time.Millisecond)
	loser, err := f.orchestrator.EndSession(context.Background(), sess.ID, session.CauseTimerExpired)
	if err != nil {
		t.Fatalf("racing end: %v", err)
	}
	if loser.Status != session.StatusArchived {
		t.Fatalf("loser observed status %s, want archived", loser.Status)
	}
	if loser.EndCause != session.CauseManualTrigger {
		t.Fatalf("loser observed cause %s, want manual", loser.EndCause)
	}

	if ended := <-winner; ended.Status != session.StatusArchived {
		t.Fatalf("winner status = %s", ended.Status)
	}
	if f.platform.purged["arena-1"] != 1 {
		t.Fatalf("purges = %d, want cleanup to run once", f.platform.purged["arena-1"])
	}
}

func TestWithdrawLeavesQueue(t *testing.T) {
	f := newFixture(t, []string{"arena-1"}, Config{})

	if _, err := f.orchestrator.Enqueue(context.Background(), "user-a", "A"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	f.orchestrator.Withdraw("user-a")

	if f.orchestrator.Status().QueueLength != 0 {
		t.Fatal("expected empty queue after withdraw")
	}
	if _, err := f.orchestrator.Enqueue(context.Background(), "user-a", "A"); err != nil {
		t.Fatalf("re-enqueue after withdraw: %v", err)
	}
}
