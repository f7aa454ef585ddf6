package grader

import (
	"math"

	"github.com/ajkachnic/debugquest/core"
)

// Policy is the tunable score curve.
type Policy struct {
	BaseScore       float64
	DifficultyBonus float64
	// AttemptDecay multiplies the score once per attempt after the first; it
	// must lie in (0, 1).
	AttemptDecay       float64
	HardcodingPenalty  float64
	MissingEdgePenalty float64
	// AdvancedAttempts is the last attempt that can still reach advanced.
	AdvancedAttempts   int
	CoinsPerDifficulty int
}

func DefaultPolicy() Policy {
	return Policy{
		BaseScore:          100,
		DifficultyBonus:    25,
		AttemptDecay:       0.8,
		HardcodingPenalty:  0.25,
		MissingEdgePenalty: 0.75,
		AdvancedAttempts:   3,
		CoinsPerDifficulty: 10,
	}
}

type Config struct {
	Limits core.Limits
	Assign core.AssignPolicy
	Policy Policy
}

func DefaultConfig() Config {
	return Config{
		Limits: core.DefaultLimits(),
		Assign: core.AssignOrDeclare,
		Policy: DefaultPolicy(),
	}
}

func clampDifficulty(difficulty int) int {
	if difficulty < 1 {
		return 1
	}
	return difficulty
}

func clampAttempts(attempts int) int {
	if attempts < 1 {
		return 1
	}
	return attempts
}

// Score is 0 for incorrect results and strictly decreasing in attempts
// otherwise.
func (p Policy) Score(correct bool, difficulty, attempts int, hardcoded, edgeHandled bool) float64 {
	if !correct {
		return 0
	}

	difficulty = clampDifficulty(difficulty)
	attempts = clampAttempts(attempts)

	score := p.BaseScore + p.DifficultyBonus*float64(difficulty-1)
	score *= math.Pow(p.AttemptDecay, float64(attempts-1))
	if hardcoded {
		score *= p.HardcodingPenalty
	}
	if !edgeHandled {
		score *= p.MissingEdgePenalty
	}
	return score
}

func (p Policy) Level(correct bool, attempts int, hardcoded, edgeHandled, patternMisses bool) Level {
	attempts = clampAttempts(attempts)

	switch {
	case !correct:
		return LevelFailed
	case hardcoded:
		return LevelBeginner
	case !edgeHandled || patternMisses:
		return LevelIntermediate
	case attempts == 1:
		return LevelExpert
	case attempts <= p.AdvancedAttempts:
		return LevelAdvanced
	}
	return LevelIntermediate
}

func (p Policy) Rewards(correct bool, score float64, difficulty int) Rewards {
	if !correct {
		return Rewards{}
	}
	return Rewards{
		XP:    int(math.Round(score)),
		Coins: clampDifficulty(difficulty) * p.CoinsPerDifficulty,
	}
}
