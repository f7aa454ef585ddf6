package grader

import (
	"time"

	"github.com/dlclark/regexp2"

	"github.com/ajkachnic/debugquest/logger"
)

const patternTimeout = 250 * time.Millisecond

// patternMisses returns the expected patterns code does not match. Patterns
// use .NET syntax (lookarounds, backreferences) as written in the question
// catalog; a pattern that fails to compile is logged and skipped.
func patternMisses(code string, patterns []string) []string {
	misses := []string{}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		re, err := regexp2.Compile(pattern, regexp2.Multiline)
		if err != nil {
			logger.Warn("Invalid expected pattern", "pattern", pattern, "error", err)
			continue
		}
		re.MatchTimeout = patternTimeout

		matched, err := re.MatchString(code)
		if err != nil {
			logger.Warn("Expected pattern timed out", "pattern", pattern, "error", err)
			continue
		}
		if !matched {
			misses = append(misses, pattern)
		}
	}
	return misses
}
