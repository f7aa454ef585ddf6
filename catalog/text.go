package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ajkachnic/debugquest/grader"
)

// `Q12 — Title`, with any dash (or none) between number and title
var questionHeader = regexp2.MustCompile(`^(Q\d+)\b\s*(?:[—–:-]+\s*)?(.*?)\s*$`, regexp2.None)

type section int

const (
	sectionNone section = iota
	sectionBroken
	sectionDescription
	sectionCorrect
	sectionRiddle
	sectionConcept
	sectionTests
	sectionPatterns
	sectionDifficulty
)

// section headers in the order they are tried; a line starting with one of
// them opens that section and the rest of the line (after an optional ':')
// is its first content line
var sectionHeaders = []struct {
	prefix  string
	section section
}{
	{"Broken Code", sectionBroken},
	{"Correct Code", sectionCorrect},
	{"Error", sectionDescription},
	{"Issue", sectionDescription},
	{"Riddle", sectionRiddle},
	{"Answer", sectionConcept},
	{"Logic Rule", sectionConcept},
	{"Hidden Test Cases", sectionTests},
	{"Regex / Token Rules", sectionPatterns},
	{"Difficulty", sectionDifficulty},
}

type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog line %d: %s", e.Line, e.Message)
}

type draft struct {
	question grader.Question
	line     int
	sections map[section][]string
}

func matchHeader(line string) (section, string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, h := range sectionHeaders {
		if !strings.HasPrefix(trimmed, h.prefix) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, h.prefix))
		// `Hidden Test Cases (Logic-validated)`
		if strings.HasPrefix(rest, "(") {
			if end := strings.Index(rest, ")"); end >= 0 {
				rest = strings.TrimSpace(rest[end+1:])
			}
		}
		if rest != "" && !strings.HasPrefix(rest, ":") {
			continue
		}
		return h.section, strings.TrimSpace(strings.TrimPrefix(rest, ":")), true
	}
	return sectionNone, "", false
}

// ParseText reads the plain text catalog format: questions open with a
// `Q<n> — Title` line followed by titled sections.
func ParseText(r io.Reader) ([]grader.Question, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	drafts := []*draft{}
	var current *draft
	active := sectionNone

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimRight(scanner.Text(), "\r")

		if m, _ := questionHeader.FindStringMatch(strings.TrimSpace(line)); m != nil {
			groups := m.Groups()
			current = &draft{
				question: grader.Question{
					ID:    groups[1].String(),
					Title: groups[2].String(),
				},
				line:     lineNo,
				sections: map[section][]string{},
			}
			drafts = append(drafts, current)
			active = sectionNone
			continue
		}

		if current == nil {
			if strings.TrimSpace(line) != "" {
				return nil, &ParseError{Line: lineNo, Message: "content before the first question header"}
			}
			continue
		}

		if s, rest, ok := matchHeader(line); ok {
			active = s
			if rest != "" {
				current.sections[s] = append(current.sections[s], rest)
			}
			continue
		}

		if active != sectionNone {
			current.sections[active] = append(current.sections[active], line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	questions := make([]grader.Question, 0, len(drafts))
	for _, d := range drafts {
		q, err := d.build()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, validate(questions)
}

func (d *draft) build() (grader.Question, error) {
	q := d.question

	q.InitialCode = code(d.sections[sectionBroken])
	q.CorrectCode = code(d.sections[sectionCorrect])
	q.Description = text(d.sections[sectionDescription])
	q.Riddle = text(d.sections[sectionRiddle])
	q.ConceptExplanation = text(d.sections[sectionConcept])

	q.Difficulty = 1
	if raw := text(d.sections[sectionDifficulty]); raw != "" {
		difficulty, err := strconv.Atoi(strings.Fields(raw)[0])
		if err != nil || difficulty < 1 {
			return q, &ParseError{Line: d.line, Message: fmt.Sprintf("%s: invalid difficulty %q", q.ID, raw)}
		}
		q.Difficulty = difficulty
	}

	for _, line := range d.sections[sectionPatterns] {
		if pattern := strings.TrimSpace(line); pattern != "" {
			q.ExpectedPatterns = append(q.ExpectedPatterns, pattern)
		}
	}

	for _, line := range d.sections[sectionTests] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		q.TestCases = append(q.TestCases, parseTestCase(line))
	}

	return q, nil
}

// parseTestCase reads `[edge] <input> => <expected>`. Without `=>` the
// expected output comes from the reference solution.
func parseTestCase(line string) grader.TestCase {
	tc := grader.TestCase{}

	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	if strings.HasPrefix(line, "[edge]") {
		tc.Edge = true
		line = strings.TrimSpace(strings.TrimPrefix(line, "[edge]"))
	}

	input, expected, found := strings.Cut(line, "=>")
	tc.Input = unescape(strings.TrimSpace(input))
	if !found {
		tc.FromReference = true
		return tc
	}
	tc.Expected = unescape(strings.TrimSpace(expected))
	return tc
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	builder := strings.Builder{}
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			builder.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			builder.WriteByte('\n')
		case 't':
			builder.WriteByte('\t')
		case '\\':
			builder.WriteByte('\\')
		default:
			builder.WriteByte('\\')
			builder.WriteByte(s[i])
		}
	}
	return builder.String()
}

// code joins a code section, dropping markdown fences and surrounding blank
// lines.
func code(lines []string) string {
	kept := []string{}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Trim(strings.Join(kept, "\n"), "\n \t")
}

func text(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
