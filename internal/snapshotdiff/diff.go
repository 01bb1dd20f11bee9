// Package snapshotdiff renders a line diff between two values as indented
// JSON. The import preview uses it to show what an import would change.
package snapshotdiff

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies a diff line.
type LineType int

const (
	LineContext LineType = iota
	LineAddition
	LineDeletion
)

// Line is one rendered line of a diff.
type Line struct {
	Type LineType
	Text string
}

// Result is a computed diff.
type Result struct {
	Lines   []Line
	Added   int
	Removed int
}

// Changed reports whether the two inputs differ.
func (r Result) Changed() bool { return r.Added > 0 || r.Removed > 0 }

// Compare encodes before and after as indented JSON (map keys sorted) and
// diffs them line by line.
func Compare(before, after any) (Result, error) {
	a, err := render(before)
	if err != nil {
		return Result{}, fmt.Errorf("rendering before: %w", err)
	}
	b, err := render(after)
	if err != nil {
		return Result{}, fmt.Errorf("rendering after: %w", err)
	}
	return Lines(a, b), nil
}

// Lines diffs two texts line by line.
func Lines(before, after string) Result {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var res Result
	for _, d := range diffs {
		typ := LineContext
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			typ = LineAddition
		case diffmatchpatch.DiffDelete:
			typ = LineDeletion
		}
		for _, text := range splitLines(d.Text) {
			res.Lines = append(res.Lines, Line{Type: typ, Text: text})
			switch typ {
			case LineAddition:
				res.Added++
			case LineDeletion:
				res.Removed++
			}
		}
	}
	return res
}

// Unified renders r with "+ ", "- " and "  " prefixes. Context runs longer
// than 2*context lines are elided; a negative context keeps every line.
func (r Result) Unified(context int) string {
	var sb strings.Builder
	for i, line := range r.Lines {
		if context >= 0 && line.Type == LineContext && !nearChange(r.Lines, i, context) {
			if i == 0 || r.Lines[i-1].Type != LineContext || nearChange(r.Lines, i-1, context) {
				sb.WriteString("  ...\n")
			}
			continue
		}
		switch line.Type {
		case LineAddition:
			sb.WriteString("+ ")
		case LineDeletion:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func nearChange(lines []Line, i, context int) bool {
	for j := max(0, i-context); j <= min(len(lines)-1, i+context); j++ {
		if lines[j].Type != LineContext {
			return true
		}
	}
	return false
}

func render(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
