// pkg/lineio/lineio.go
package lineio

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Line is one surviving input line. Num is 1-based and counts every
// physical line of the source, including filtered ones.
type Line struct {
	Num  int
	Text string
}

// Option adjusts scanner filtering.
type Option func(*Scanner)

// KeepComments passes comment lines through instead of dropping them.
func KeepComments() Option {
	return func(s *Scanner) { s.keepComments = true }
}

// Scanner streams input as (line number, text) pairs, dropping blank
// lines, comment lines, and vendor-extension (x-) lines. Text passes
// through verbatim.
type Scanner struct {
	sc           *bufio.Scanner
	closer       io.Closer
	num          int
	keepComments bool
	done         bool
}

// New returns a Scanner reading from r.
func New(r io.Reader, opts ...Option) *Scanner {
	s := &Scanner{sc: bufio.NewScanner(r)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a Scanner reading from the file at path.
func Open(path string, opts ...Option) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := New(f, opts...)
	s.closer = f
	return s, nil
}

// Next returns the next surviving line. The second return is false once
// the input is exhausted and stays false on every later call.
func (s *Scanner) Next() (Line, bool) {
	if s.done {
		return Line{}, false
	}
	for s.sc.Scan() {
		s.num++
		text := s.sc.Text()
		if s.keep(text) {
			return Line{Num: s.num, Text: text}, true
		}
	}
	s.done = true
	return Line{}, false
}

func (s *Scanner) keep(text string) bool {
	t := strings.TrimLeft(text, " \t")
	switch {
	case t == "":
		return false
	case strings.HasPrefix(t, "#"):
		return s.keepComments
	case strings.HasPrefix(t, "x-"):
		return false
	}
	return true
}

// Err reports any read error encountered by the scanner.
func (s *Scanner) Err() error { return s.sc.Err() }

// Close releases the underlying file when the Scanner was opened by path.
func (s *Scanner) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
