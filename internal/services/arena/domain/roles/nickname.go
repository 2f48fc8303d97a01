package roles

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrNicknameSpaceExhausted indicates the widened nickname space could not
// yield a free name. With the suffix fallback this requires tens of thousands
// of live nicknames, which the fixed channel pool makes unreachable.
var ErrNicknameSpaceExhausted = errors.New("nickname space exhausted")

// nicknameAttempts caps rejection sampling over the two-word space before the
// generator widens with a numeric suffix.
const nicknameAttempts = 32

// nicknameWidenedAttempts caps sampling over the suffixed space.
const nicknameWidenedAttempts = 64

var nicknameAdjectives = []string{
	"amber", "bold", "brisk", "calm", "clever", "crimson", "daring", "dusty",
	"eager", "fabled", "gentle", "hidden", "ivory", "jolly", "keen", "lively",
	"mellow", "nimble", "olive", "plucky", "quiet", "rustic", "silver", "witty",
}

var nicknameNouns = []string{
	"badger", "comet", "cricket", "falcon", "fern", "glacier", "harbor",
	"heron", "lantern", "maple", "meadow", "orchid", "otter", "pebble",
	"pine", "quill", "raven", "reef", "sparrow", "thicket", "tide", "walnut",
	"willow", "zephyr",
}

// NicknameGenerator produces human-readable two-word cover names.
type NicknameGenerator struct {
	rng *rand.Rand
}

// NewNicknameGenerator creates a generator backed by the given source.
func NewNicknameGenerator(rng *rand.Rand) *NicknameGenerator {
	return &NicknameGenerator{rng: rng}
}

// Generate returns a nickname absent from existing. It rejection-samples the
// two-word space a bounded number of times, then widens with a numeric suffix
// rather than failing.
func (g *NicknameGenerator) Generate(existing map[string]bool) (string, error) {
	for i := 0; i < nicknameAttempts; i++ {
		candidate := g.sample()
		if !existing[candidate] {
			return candidate, nil
		}
	}

	for i := 0; i < nicknameWidenedAttempts; i++ {
		candidate := fmt.Sprintf("%s-%02d", g.sample(), g.rng.Intn(100))
		if !existing[candidate] {
			return candidate, nil
		}
	}

	return "", ErrNicknameSpaceExhausted
}

func (g *NicknameGenerator) sample() string {
	adjective := nicknameAdjectives[g.rng.Intn(len(nicknameAdjectives))]
	noun := nicknameNouns[g.rng.Intn(len(nicknameNouns))]
	return adjective + "-" + noun
}
