// Package catalog loads debugging questions from the plain text format the
// question authors write and from JSON.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ajkachnic/debugquest/grader"
)

// LoadJSON reads either a bare array of questions or an object with a
// "questions" array.
func LoadJSON(r io.Reader) ([]grader.Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var questions []grader.Question
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var doc struct {
			Questions []grader.Question `json:"questions"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		questions = doc.Questions
	} else if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i := range questions {
		if questions[i].Difficulty < 1 {
			questions[i].Difficulty = 1
		}
	}
	return questions, validate(questions)
}

// Load reads a catalog file, choosing the format by extension.
func Load(path string) ([]grader.Question, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	var questions []grader.Question
	if strings.EqualFold(filepath.Ext(path), ".json") {
		questions, err = LoadJSON(file)
	} else {
		questions, err = ParseText(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	Sort(questions)
	return questions, nil
}

func validate(questions []grader.Question) error {
	seen := map[string]bool{}
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question %d has no id", i+1)
		}
		if seen[q.ID] {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

// number extracts the numeric part of ids like "Q12".
func number(id string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimLeft(id, "Qq"))
	return n, err == nil
}

func less(a, b grader.Question) bool {
	an, aok := number(a.ID)
	bn, bok := number(b.ID)
	if aok && bok && an != bn {
		return an < bn
	}
	if aok != bok {
		return aok
	}
	return a.ID < b.ID
}

// Sort orders questions by difficulty, then by question number.
func Sort(questions []grader.Question) {
	slices.SortStableFunc(questions, func(a, b grader.Question) bool {
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		return less(a, b)
	})
}

// Find returns the question with the given id. Ids match case-insensitively
// and a bare number matches "Q<number>".
func Find(questions []grader.Question, id string) (grader.Question, bool) {
	i := slices.IndexFunc(questions, func(q grader.Question) bool {
		return strings.EqualFold(q.ID, id) || strings.EqualFold(q.ID, "Q"+id)
	})
	if i < 0 {
		return grader.Question{}, false
	}
	return questions[i], true
}

// ByDifficulty groups question ids by difficulty.
func ByDifficulty(questions []grader.Question) map[int][]string {
	groups := map[int][]string{}
	for _, q := range questions {
		groups[q.Difficulty] = append(groups[q.Difficulty], q.ID)
	}
	return groups
}

// Difficulties lists the difficulties present, ascending.
func Difficulties(questions []grader.Question) []int {
	levels := maps.Keys(ByDifficulty(questions))
	slices.Sort(levels)
	return levels
}
