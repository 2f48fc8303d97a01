package app

import (
	"fmt"
	"strings"

	"github.com/louisbranch/imitation.space/internal/services/arena/domain/session"
)

// introMessage opens a session. It names every participant by cover nickname
// only; real roles stay hidden until the verdict.
func introMessage(sess *session.Session) string {
	var b strings.Builder
	b.WriteString("A new imitation test begins!\n")
	b.WriteString("Participants: ")
	for i, participant := range sess.Participants {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("**" + participant.Nickname + "**")
	}
	b.WriteString("\n")
	if judge, ok := sess.Judge(); ok {
		fmt.Fprintf(&b, "**%s** is the judge. One of the others speaks for a machine. ", judge.Nickname)
		fmt.Fprintf(&b, "The judge has %s to figure out which.\n", sess.Duration)
	} else {
		fmt.Fprintf(&b, "You have %s. One of you speaks for a machine.\n", sess.Duration)
	}
	return b.String()
}

// verdictMessage reveals the outcome when a session ends.
func verdictMessage(sess *session.Session, verdict *session.Verdict) string {
	var b strings.Builder
	b.WriteString("Time is up! The test has ended.\n")

	proxy, ok := sess.AIProxy()
	if ok {
		fmt.Fprintf(&b, "The machine was **%s**.\n", proxy.Nickname)
	}

	judge, ok := sess.Judge()
	if !ok || verdict == nil {
		return b.String()
	}

	if verdict.VotedTargetID == "" {
		fmt.Fprintf(&b, "**%s** never voted. The machine wins by default.\n", judge.Nickname)
		return b.String()
	}

	target, _ := sess.ParticipantByUser(verdict.VotedTargetID)
	if verdict.JudgeCorrect {
		fmt.Fprintf(&b, "**%s** accused **%s** and was right. The judge wins!\n", judge.Nickname, target.Nickname)
	} else {
		fmt.Fprintf(&b, "**%s** accused **%s** and was wrong. The machine wins!\n", judge.Nickname, target.Nickname)
	}
	return b.String()
}
