package app

import (
	"errors"

	ierrors "github.com/louisbranch/imitation.space/internal/errors"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/pool"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/queue"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/roles"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/session"
)

// mapDomainError wraps a domain sentinel error with its machine-readable code
// so transport layers can translate it without knowing domain packages.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	code := ierrors.CodeUnknown
	switch {
	case errors.Is(err, pool.ErrExhausted):
		code = ierrors.CodePoolExhausted
	case errors.Is(err, pool.ErrInvalidRelease):
		code = ierrors.CodePoolInvalidRelease
	case errors.Is(err, queue.ErrEmptyUserID):
		code = ierrors.CodeQueueEmptyUserID
	case errors.Is(err, queue.ErrAlreadyQueued):
		code = ierrors.CodeQueueAlreadyQueued
	case errors.Is(err, queue.ErrAlreadyInSession):
		code = ierrors.CodeQueueAlreadyInSession
	case errors.Is(err, roles.ErrCountMismatch):
		code = ierrors.CodeRoleCountMismatch
	case errors.Is(err, roles.ErrNicknameSpaceExhausted):
		code = ierrors.CodeNicknameSpaceExhausted
	case errors.Is(err, session.ErrNotActive):
		code = ierrors.CodeSessionNotActive
	case errors.Is(err, session.ErrInvalidTransition):
		code = ierrors.CodeSessionInvalidTransition
	case errors.Is(err, session.ErrInvalidDuration):
		code = ierrors.CodeSessionInvalidDuration
	case errors.Is(err, session.ErrInvalidType):
		code = ierrors.CodeSessionInvalidType
	case errors.Is(err, session.ErrNotJudge):
		code = ierrors.CodeVoteNotJudge
	case errors.Is(err, session.ErrUnknownTarget):
		code = ierrors.CodeVoteUnknownTarget
	case errors.Is(err, session.ErrTargetIsJudge):
		code = ierrors.CodeVoteTargetIsJudge
	case errors.Is(err, session.ErrVoteAlreadyCast):
		code = ierrors.CodeVoteAlreadyCast
	}

	if code == ierrors.CodeUnknown {
		return ierrors.Wrap(ierrors.CodeUnknown, "arena operation failed", err)
	}
	return ierrors.Wrap(code, err.Error(), err)
}
