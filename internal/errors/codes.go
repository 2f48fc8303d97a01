// Package errors provides structured error handling for arena operations.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Pool errors
	CodePoolExhausted      Code = "POOL_EXHAUSTED"
	CodePoolInvalidRelease Code = "POOL_INVALID_RELEASE"

	// Queue errors
	CodeQueueAlreadyQueued    Code = "QUEUE_ALREADY_QUEUED"
	CodeQueueAlreadyInSession Code = "QUEUE_ALREADY_IN_SESSION"
	CodeQueueEmptyUserID      Code = "QUEUE_EMPTY_USER_ID"

	// Role errors
	CodeRoleCountMismatch      Code = "ROLE_COUNT_MISMATCH"
	CodeNicknameSpaceExhausted Code = "NICKNAME_SPACE_EXHAUSTED"

	// Session errors
	CodeSessionNotFound          Code = "SESSION_NOT_FOUND"
	CodeSessionNotActive         Code = "SESSION_NOT_ACTIVE"
	CodeSessionInvalidTransition Code = "SESSION_INVALID_STATUS_TRANSITION"
	CodeSessionInvalidDuration   Code = "SESSION_INVALID_DURATION"
	CodeSessionInvalidType       Code = "SESSION_INVALID_TYPE"

	// Vote errors
	CodeVoteNotJudge      Code = "VOTE_NOT_JUDGE"
	CodeVoteUnknownTarget Code = "VOTE_UNKNOWN_TARGET"
	CodeVoteTargetIsJudge Code = "VOTE_TARGET_IS_JUDGE"
	CodeVoteAlreadyCast   Code = "VOTE_ALREADY_CAST"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Gateway errors
	CodeGatewayUnavailable Code = "GATEWAY_UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeQueueEmptyUserID,
		CodeRoleCountMismatch,
		CodeSessionInvalidDuration,
		CodeSessionInvalidType,
		CodeVoteUnknownTarget,
		CodeVoteTargetIsJudge:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeQueueAlreadyQueued,
		CodeQueueAlreadyInSession,
		CodeSessionNotActive,
		CodeSessionInvalidTransition,
		CodePoolInvalidRelease,
		CodeVoteAlreadyCast:
		return codes.FailedPrecondition

	// ResourceExhausted - scarce resources consumed
	case CodePoolExhausted,
		CodeNicknameSpaceExhausted:
		return codes.ResourceExhausted

	// PermissionDenied - caller lacks the required role
	case CodeVoteNotJudge:
		return codes.PermissionDenied

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeSessionNotFound:
		return codes.NotFound

	// Unavailable - transient collaborator failures
	case CodeGatewayUnavailable:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}
