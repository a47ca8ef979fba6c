// pkg/compose/token.go
package compose

import (
	"strings"

	"apptainer-compose/pkg/lineio"
)

// EventKind classifies a tokenized line.
type EventKind int

const (
	// KeyEvent is `key:` or `key: value`.
	KeyEvent EventKind = iota
	// ItemEvent is a `- payload` list entry.
	ItemEvent
	// RawEvent is any line fitting neither shape. The parser decides
	// whether a raw line is ignorable or a grammar violation.
	RawEvent
)

// Event is one tokenized line: indentation depth plus the key/value or
// item payload the line carries.
type Event struct {
	Line     int
	Depth    int
	Kind     EventKind
	Key      string
	Value    string
	HasValue bool
	Text     string
}

// tokenize turns one surviving line into an Event. Shape problems do
// not fail here; they surface as RawEvents so lines outside the parsed
// grammar (such as preamble before the services root) stay ignorable.
func tokenize(ln lineio.Line) Event {
	text := strings.TrimRight(ln.Text, " \t")
	depth := 0
	for depth < len(text) && text[depth] == ' ' {
		depth++
	}
	ev := Event{Line: ln.Num, Depth: depth, Kind: RawEvent, Text: ln.Text}

	rest := text[depth:]
	if rest == "" || rest[0] == '\t' {
		return ev
	}
	switch {
	case rest[0] == '-':
		ev.Kind = ItemEvent
		ev.Value = strings.TrimSpace(rest[1:])
		ev.HasValue = ev.Value != ""
	case strings.HasSuffix(rest, ":"):
		ev.Kind = KeyEvent
		ev.Key = rest[:len(rest)-1]
	default:
		i := strings.Index(rest, ": ")
		if i < 0 {
			return ev
		}
		ev.Kind = KeyEvent
		ev.Key = rest[:i]
		ev.Value = strings.TrimLeft(rest[i+2:], " \t")
		ev.HasValue = true
	}
	return ev
}

// cursor feeds tokenized events with one event of lookahead, so block
// parsers can detect where a block ends without consuming the first
// event of the next one.
type cursor struct {
	sc     *lineio.Scanner
	cur    Event
	ok     bool
	primed bool
}

func newCursor(sc *lineio.Scanner) *cursor {
	return &cursor{sc: sc}
}

func (c *cursor) peek() (Event, bool) {
	if !c.primed {
		ln, ok := c.sc.Next()
		if ok {
			c.cur = tokenize(ln)
		} else {
			c.cur = Event{}
		}
		c.ok = ok
		c.primed = true
	}
	return c.cur, c.ok
}

func (c *cursor) next() (Event, bool) {
	ev, ok := c.peek()
	c.primed = false
	return ev, ok
}
