// Package roles assigns hidden game roles and cover nicknames to a formed
// group. It only computes values; applying nicknames to the platform is the
// orchestrator's job.
package roles

import (
	"errors"
	"math/rand"
)

// Role identifies a participant's hidden function in a session.
type Role int

const (
	// RoleUnspecified represents an invalid role value.
	RoleUnspecified Role = iota
	// RoleHuman converses as themselves.
	RoleHuman
	// RoleAIProxy relays replies produced by the text-generation service.
	RoleAIProxy
	// RoleJudge must identify which peer is the ai-proxy.
	RoleJudge
)

func (r Role) String() string {
	switch r {
	case RoleHuman:
		return "human"
	case RoleAIProxy:
		return "ai-proxy"
	case RoleJudge:
		return "judge"
	default:
		return "unspecified"
	}
}

// ParseRole maps a stored role label back to its enum value.
func ParseRole(value string) Role {
	switch value {
	case "human":
		return RoleHuman
	case "ai-proxy":
		return RoleAIProxy
	case "judge":
		return RoleJudge
	default:
		return RoleUnspecified
	}
}

// ErrCountMismatch indicates the group size does not match the role multiset.
var ErrCountMismatch = errors.New("group size does not match required roles")

// Counts is the role multiset a session type requires.
type Counts struct {
	Judges    int
	Humans    int
	AIProxies int
}

// Total is the group size the multiset covers.
func (c Counts) Total() int {
	return c.Judges + c.Humans + c.AIProxies
}

// Assign produces a uniformly random assignment of the required roles for a
// group of the given size. Every permutation of the multiset is equally
// likely, so no queue position is favored for any role.
func Assign(groupSize int, counts Counts, rng *rand.Rand) ([]Role, error) {
	if groupSize != counts.Total() {
		return nil, ErrCountMismatch
	}

	assigned := make([]Role, 0, groupSize)
	for i := 0; i < counts.Judges; i++ {
		assigned = append(assigned, RoleJudge)
	}
	for i := 0; i < counts.Humans; i++ {
		assigned = append(assigned, RoleHuman)
	}
	for i := 0; i < counts.AIProxies; i++ {
		assigned = append(assigned, RoleAIProxy)
	}

	rng.Shuffle(len(assigned), func(i, j int) {
		assigned[i], assigned[j] = assigned[j], assigned[i]
	})
	return assigned, nil
}
