package manifest

import (
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// span is a half-open byte range into the source text.
type span struct{ start, end int }

// keyValue is a top-level `key = value` line inside a section.
type keyValue struct {
	path      []string
	lineStart int // start of the line, indentation included
	value     span
	textEnd   int // end of value or trailing comment, before the newline
	lineEnd   int // offset after the newline, or len(src) at EOF
}

// section is a table header and the key/value lines that follow it.
// The implicit root section has a nil header path and headerStart -1.
type section struct {
	path        []string
	array       bool
	headerStart int
	bodyStart   int
	end         int
	entries     []keyValue
}

type scanner struct {
	src  string
	pos  int
	line int
}

// locate splits src into sections and records the spans of every top-level key/value.
func locate(src string) ([]*section, error) {
	s := &scanner{src: src, line: 1}
	root := &section{headerStart: -1}
	sections := []*section{root}
	current := root

	for s.pos < len(s.src) {
		lineStart := s.pos
		s.skipBlank()
		if s.eof() {
			break
		}
		switch c := s.src[s.pos]; {
		case c == '\n' || c == '\r':
			s.newline()
		case c == '#':
			s.skipComment()
			s.newline()
		case c == '[':
			current.end = lineStart
			sec, err := s.header(lineStart)
			if err != nil {
				return nil, err
			}
			sections = append(sections, sec)
			current = sec
		default:
			kv, err := s.keyValue(lineStart)
			if err != nil {
				return nil, err
			}
			current.entries = append(current.entries, kv)
		}
	}
	current.end = len(s.src)
	return sections, nil
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) errorf(msg string) error {
	return ferrors.ParseError(msg).WithContext("line", s.line).Build()
}

func (s *scanner) skipBlank() {
	for !s.eof() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func (s *scanner) skipComment() {
	for !s.eof() && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		s.pos++
	}
}

// newline consumes a single LF or CRLF if present.
func (s *scanner) newline() {
	if s.eof() {
		return
	}
	if s.src[s.pos] == '\r' {
		s.pos++
	}
	if !s.eof() && s.src[s.pos] == '\n' {
		s.pos++
		s.line++
	}
}

// endOfLine consumes trailing blanks and an optional comment, returning where the content ends.
func (s *scanner) endOfLine() (int, error) {
	s.skipBlank()
	contentEnd := s.pos
	if !s.eof() && s.src[s.pos] == '#' {
		s.skipComment()
		contentEnd = s.pos
	}
	if !s.eof() && s.src[s.pos] != '\n' && s.src[s.pos] != '\r' {
		return 0, s.errorf("unexpected content after value")
	}
	s.newline()
	return contentEnd, nil
}

func (s *scanner) header(lineStart int) (*section, error) {
	sec := &section{headerStart: lineStart}
	s.pos++
	if !s.eof() && s.src[s.pos] == '[' {
		sec.array = true
		s.pos++
	}
	path, err := s.keyPath()
	if err != nil {
		return nil, err
	}
	sec.path = path
	closing := "]"
	if sec.array {
		closing = "]]"
	}
	if !strings.HasPrefix(s.src[s.pos:], closing) {
		return nil, s.errorf("unterminated table header")
	}
	s.pos += len(closing)
	if _, err := s.endOfLine(); err != nil {
		return nil, err
	}
	sec.bodyStart = s.pos
	return sec, nil
}

func (s *scanner) keyValue(lineStart int) (keyValue, error) {
	kv := keyValue{lineStart: lineStart}
	path, err := s.keyPath()
	if err != nil {
		return kv, err
	}
	kv.path = path
	if s.eof() || s.src[s.pos] != '=' {
		return kv, s.errorf("expected '=' after key")
	}
	s.pos++
	s.skipBlank()
	kv.value.start = s.pos
	if err := s.value(); err != nil {
		return kv, err
	}
	kv.value.end = s.pos
	if kv.textEnd, err = s.endOfLine(); err != nil {
		return kv, err
	}
	kv.lineEnd = s.pos
	return kv, nil
}

// keyPath reads a dotted key and leaves the scanner after trailing blanks.
func (s *scanner) keyPath() ([]string, error) {
	var path []string
	for {
		s.skipBlank()
		if s.eof() {
			return nil, s.errorf("unexpected end of input in key")
		}
		var seg string
		switch s.src[s.pos] {
		case '"':
			start := s.pos
			if err := s.basicString(); err != nil {
				return nil, err
			}
			raw := s.src[start:s.pos]
			unquoted, err := strconv.Unquote(raw)
			if err != nil {
				unquoted = raw[1 : len(raw)-1]
			}
			seg = unquoted
		case '\'':
			start := s.pos
			if err := s.literalString(); err != nil {
				return nil, err
			}
			seg = s.src[start+1 : s.pos-1]
		default:
			start := s.pos
			for !s.eof() && isBareKeyChar(s.src[s.pos]) {
				s.pos++
			}
			if start == s.pos {
				return nil, s.errorf("invalid key")
			}
			seg = s.src[start:s.pos]
		}
		path = append(path, seg)
		s.skipBlank()
		if s.eof() || s.src[s.pos] != '.' {
			return path, nil
		}
		s.pos++
	}
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func (s *scanner) value() error {
	if s.eof() {
		return s.errorf("missing value")
	}
	switch s.src[s.pos] {
	case '"', '\'':
		return s.str()
	case '[', '{':
		return s.container()
	default:
		start := s.pos
		for !s.eof() && !isValueTerminator(s.src[s.pos]) {
			s.pos++
		}
		if start == s.pos {
			return s.errorf("missing value")
		}
		// A local date may be followed by a space and a time.
		if isDate(s.src[start:s.pos]) && s.pos+1 < len(s.src) && s.src[s.pos] == ' ' && isDigit(s.src[s.pos+1]) {
			s.pos++
			for !s.eof() && !isValueTerminator(s.src[s.pos]) {
				s.pos++
			}
		}
		return nil
	}
}

func isValueTerminator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '#' || c == ',' || c == ']' || c == '}'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// isDate matches YYYY-MM-DD.
func isDate(tok string) bool {
	if len(tok) != 10 || tok[4] != '-' || tok[7] != '-' {
		return false
	}
	for i := range len(tok) {
		if i != 4 && i != 7 && !isDigit(tok[i]) {
			return false
		}
	}
	return true
}

func (s *scanner) str() error {
	rest := s.src[s.pos:]
	switch {
	case strings.HasPrefix(rest, `"""`):
		return s.multiline(`"""`, true)
	case strings.HasPrefix(rest, `'''`):
		return s.multiline(`'''`, false)
	case rest[0] == '"':
		return s.basicString()
	default:
		return s.literalString()
	}
}

func (s *scanner) basicString() error {
	s.pos++
	for !s.eof() {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
		case '"':
			s.pos++
			return nil
		case '\n':
			return s.errorf("unterminated string")
		default:
			s.pos++
		}
	}
	return s.errorf("unterminated string")
}

func (s *scanner) literalString() error {
	s.pos++
	for !s.eof() {
		switch s.src[s.pos] {
		case '\'':
			s.pos++
			return nil
		case '\n':
			return s.errorf("unterminated string")
		default:
			s.pos++
		}
	}
	return s.errorf("unterminated string")
}

// multiline consumes a triple-quoted string. Up to two extra quotes may precede the delimiter.
func (s *scanner) multiline(delim string, escapes bool) error {
	s.pos += len(delim)
	for !s.eof() {
		c := s.src[s.pos]
		if escapes && c == '\\' {
			s.pos += 2
			continue
		}
		if strings.HasPrefix(s.src[s.pos:], delim) {
			s.pos += len(delim)
			for extra := 0; extra < 2 && !s.eof() && s.src[s.pos] == delim[0]; extra++ {
				s.pos++
			}
			return nil
		}
		if c == '\n' {
			s.line++
		}
		s.pos++
	}
	return s.errorf("unterminated multi-line string")
}

// container consumes a bracketed array or inline table, nesting included.
func (s *scanner) container() error {
	var stack []byte
	for !s.eof() {
		c := s.src[s.pos]
		switch c {
		case '"', '\'':
			if err := s.str(); err != nil {
				return err
			}
			continue
		case '#':
			s.skipComment()
			continue
		case '\n':
			s.line++
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return s.errorf("mismatched bracket")
			}
			stack = stack[:len(stack)-1]
		}
		s.pos++
		if len(stack) == 0 {
			return nil
		}
	}
	return s.errorf("unterminated array or inline table")
}

// parseKeyPath splits a dotted table name such as `workspace.dependencies`
// or `target.'cfg(unix)'.dependencies` into its segments.
func parseKeyPath(name string) ([]string, error) {
	s := &scanner{src: name, line: 1}
	path, err := s.keyPath()
	if err != nil {
		return nil, err
	}
	if !s.eof() {
		return nil, s.errorf("invalid table name")
	}
	return path, nil
}
