// Package triggers reads trigger files and builds the trie the engine
// matches against.
//
// A trigger file holds one "trigger=expansion" pair per line. The line is
// split at the first '=', so an expansion may itself contain '='. Blank
// lines are skipped. Every character of both halves must be typeable on
// the supported layout.
package triggers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"expandd/internal/keymap"
	"expandd/internal/trie"
)

// Entry is one trigger definition.
type Entry struct {
	Trigger   string
	Expansion string
	Line      int
}

// ParseError describes a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("triggers: line %d: %s", e.Line, e.Msg)
}

// ParseErrors collects every malformed line of a file.
type ParseErrors []ParseError

func (e ParseErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Parse reads trigger definitions from r. It reports every malformed line,
// not only the first.
func Parse(r io.Reader) ([]Entry, error) {
	keys := keymap.New()
	var (
		entries []Entry
		errs    ParseErrors
	)

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}

		trigger, expansion, ok := strings.Cut(text, "=")
		switch {
		case !ok:
			errs = append(errs, ParseError{Line: line, Msg: "missing '='"})
			continue
		case trigger == "":
			errs = append(errs, ParseError{Line: line, Msg: "empty trigger"})
			continue
		case expansion == "":
			errs = append(errs, ParseError{Line: line, Msg: "empty expansion"})
			continue
		}

		if err := keys.Validate(trigger); err != nil {
			errs = append(errs, ParseError{Line: line, Msg: fmt.Sprintf("trigger: %v", err)})
			continue
		}
		if err := keys.Validate(expansion); err != nil {
			errs = append(errs, ParseError{Line: line, Msg: fmt.Sprintf("expansion: %v", err)})
			continue
		}

		entries = append(entries, Entry{Trigger: trigger, Expansion: expansion, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read triggers: %w", err)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return entries, nil
}

// Load parses the trigger file at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open triggers: %w", err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Build inserts entries into a new trie in order, so a later duplicate
// trigger replaces an earlier one. The trie gets its own keymap and shares
// no state with any other.
func Build(entries []Entry) (*trie.Trie, error) {
	t := trie.New(keymap.New())
	for _, e := range entries {
		if err := t.Insert(e.Trigger, e.Expansion); err != nil {
			return nil, fmt.Errorf("line %d: %w", e.Line, err)
		}
	}
	return t, nil
}

// LoadTrie is Load followed by Build.
func LoadTrie(path string) (*trie.Trie, error) {
	entries, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Build(entries)
}
