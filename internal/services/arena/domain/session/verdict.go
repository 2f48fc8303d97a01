package session

import "errors"

// ErrNoAIProxy indicates a session without an ai-proxy participant, which the
// role count check at creation is supposed to make impossible.
var ErrNoAIProxy = errors.New("session has no ai-proxy participant")

// Verdict is the computed correctness outcome of the judge's final vote.
type Verdict struct {
	JudgeCorrect    bool
	VotedTargetID   string
	ActualAIProxyID string
}

// Tally computes the verdict from the judge's final recorded vote.
//
// A judge who never voted loses: JudgeCorrect is false and VotedTargetID is
// empty. That is a game outcome, not an error.
func Tally(s Session) (Verdict, error) {
	aiProxy, ok := s.AIProxy()
	if !ok {
		return Verdict{}, ErrNoAIProxy
	}

	verdict := Verdict{ActualAIProxyID: aiProxy.UserID}

	judge, ok := s.Judge()
	if !ok {
		// Duel sessions have no judge and therefore no verdict to win.
		return verdict, nil
	}

	target, voted := s.Votes[judge.UserID]
	if !voted {
		return verdict, nil
	}

	verdict.VotedTargetID = target
	verdict.JudgeCorrect = target == aiProxy.UserID
	return verdict, nil
}
