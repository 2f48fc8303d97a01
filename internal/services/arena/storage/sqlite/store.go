// Package sqlite provides SQLite-backed persistence for session outcomes and
// judge accuracy stats.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/imitation.space/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/imitation.space/internal/services/arena/storage"
	"github.com/louisbranch/imitation.space/internal/services/arena/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for arena state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Open opens an arena SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutSession upserts one session record with its participants and vote audit
// log in a single transaction.
func (s *Store) PutSession(ctx context.Context, record storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("session id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions (
    id, type, status, channel_id, created_by, duration_ms, created_at,
    expires_at, ended_at, end_cause, judge_correct, voted_target_id, actual_ai_proxy_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    status = excluded.status,
    expires_at = excluded.expires_at,
    ended_at = excluded.ended_at,
    end_cause = excluded.end_cause,
    judge_correct = excluded.judge_correct,
    voted_target_id = excluded.voted_target_id,
    actual_ai_proxy_id = excluded.actual_ai_proxy_id
`,
		record.ID,
		record.Type,
		record.Status,
		record.ChannelID,
		record.CreatedBy,
		record.Duration.Milliseconds(),
		toMillis(record.CreatedAt),
		toMillis(record.ExpiresAt),
		toNullMillis(record.EndedAt),
		record.EndCause,
		boolToInt(record.JudgeCorrect),
		record.VotedTargetID,
		record.ActualAIProxyID,
	); err != nil {
		return fmt.Errorf("upsert session %s: %w", record.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_participants WHERE session_id = ?", record.ID); err != nil {
		return fmt.Errorf("clear participants for %s: %w", record.ID, err)
	}
	for position, participant := range record.Participants {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO session_participants (session_id, position, user_id, display_name, role, nickname, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
			record.ID,
			position,
			participant.UserID,
			participant.DisplayName,
			participant.Role,
			participant.Nickname,
			toMillis(participant.JoinedAt),
		); err != nil {
			return fmt.Errorf("insert participant %s for %s: %w", participant.UserID, record.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_votes WHERE session_id = ?", record.ID); err != nil {
		return fmt.Errorf("clear votes for %s: %w", record.ID, err)
	}
	for _, vote := range record.Votes {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO session_votes (session_id, judge_user_id, target_user_id, cast_at)
VALUES (?, ?, ?, ?)
`,
			record.ID,
			vote.JudgeUserID,
			vote.TargetUserID,
			toMillis(vote.CastAt),
		); err != nil {
			return fmt.Errorf("insert vote for %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session upsert: %w", err)
	}
	return nil
}

// GetSession fetches one session record with participants and votes.
func (s *Store) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionRecord{}, fmt.Errorf("storage is not configured")
	}

	var (
		record     storage.SessionRecord
		durationMS int64
		createdAt  int64
		expiresAt  int64
		endedAt    sql.NullInt64
		correct    int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, type, status, channel_id, created_by, duration_ms, created_at,
       expires_at, ended_at, end_cause, judge_correct, voted_target_id, actual_ai_proxy_id
FROM sessions WHERE id = ?
`, id).Scan(
		&record.ID,
		&record.Type,
		&record.Status,
		&record.ChannelID,
		&record.CreatedBy,
		&durationMS,
		&createdAt,
		&expiresAt,
		&endedAt,
		&record.EndCause,
		&correct,
		&record.VotedTargetID,
		&record.ActualAIProxyID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SessionRecord{}, fmt.Errorf("get session %s: %w", id, err)
	}

	record.Duration = time.Duration(durationMS) * time.Millisecond
	record.CreatedAt = fromMillis(createdAt)
	record.ExpiresAt = fromMillis(expiresAt)
	record.EndedAt = fromNullMillis(endedAt)
	record.JudgeCorrect = correct != 0

	if record.Participants, err = s.listParticipants(ctx, id); err != nil {
		return storage.SessionRecord{}, err
	}
	if record.Votes, err = s.listVotes(ctx, id); err != nil {
		return storage.SessionRecord{}, err
	}
	return record, nil
}

// ListRecentSessions returns up to limit session records, newest first.
func (s *Store) ListRecentSessions(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.sqlDB.QueryContext(ctx, "SELECT id FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list recent sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	records := make([]storage.SessionRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// IncrementJudgeStats bumps a user's judged-session counters.
func (s *Store) IncrementJudgeStats(ctx context.Context, userID string, correct bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO judge_stats (user_id, tests_taken, correct_guesses)
VALUES (?, 1, ?)
ON CONFLICT(user_id) DO UPDATE SET
    tests_taken = tests_taken + 1,
    correct_guesses = correct_guesses + excluded.correct_guesses
`, userID, boolToInt(correct)); err != nil {
		return fmt.Errorf("increment judge stats for %s: %w", userID, err)
	}
	return nil
}

// GetJudgeStats fetches a user's judged-session counters.
func (s *Store) GetJudgeStats(ctx context.Context, userID string) (storage.JudgeStatsRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.JudgeStatsRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.JudgeStatsRecord{}, fmt.Errorf("storage is not configured")
	}

	record := storage.JudgeStatsRecord{UserID: userID}
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT tests_taken, correct_guesses FROM judge_stats WHERE user_id = ?", userID,
	).Scan(&record.TestsTaken, &record.CorrectGuesses)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.JudgeStatsRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.JudgeStatsRecord{}, fmt.Errorf("get judge stats for %s: %w", userID, err)
	}
	return record, nil
}

func (s *Store) listParticipants(ctx context.Context, sessionID string) ([]storage.ParticipantRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT user_id, display_name, role, nickname, joined_at
FROM session_participants WHERE session_id = ? ORDER BY position
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var participants []storage.ParticipantRecord
	for rows.Next() {
		var (
			participant storage.ParticipantRecord
			joinedAt    int64
		)
		if err := rows.Scan(
			&participant.UserID,
			&participant.DisplayName,
			&participant.Role,
			&participant.Nickname,
			&joinedAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant for %s: %w", sessionID, err)
		}
		participant.JoinedAt = fromMillis(joinedAt)
		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants for %s: %w", sessionID, err)
	}
	return participants, nil
}

func (s *Store) listVotes(ctx context.Context, sessionID string) ([]storage.VoteRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT judge_user_id, target_user_id, cast_at
FROM session_votes WHERE session_id = ? ORDER BY id
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list votes for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var votes []storage.VoteRecord
	for rows.Next() {
		var (
			vote   storage.VoteRecord
			castAt int64
		)
		if err := rows.Scan(&vote.JudgeUserID, &vote.TargetUserID, &castAt); err != nil {
			return nil, fmt.Errorf("scan vote for %s: %w", sessionID, err)
		}
		vote.CastAt = fromMillis(castAt)
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes for %s: %w", sessionID, err)
	}
	return votes, nil
}

func boolToInt(value bool) int64 {
	if value {
		return 1
	}
	return 0
}
