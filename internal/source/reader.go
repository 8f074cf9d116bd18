package source

// reader.go cleans up byte streams before CSV parsing.
//
// Sheets exported from Excel on Windows start with a UTF-8 BOM, and older
// exports carry Latin-1 bytes in free-text columns. Both are handled while
// streaming so a large upload is never held in memory twice.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NewCleanReader wraps r so that a leading BOM is dropped and every invalid
// UTF-8 byte is replaced by U+FFFD.
func NewCleanReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{br: br}
}

// utf8Sanitizer re-encodes its input rune by rune. bufio decodes an invalid
// byte as RuneError of size 1, which encodes back to the replacement rune.
type utf8Sanitizer struct {
	br      *bufio.Reader
	pending []byte
	err     error
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.err != nil {
			break
		}

		r, size, err := s.br.ReadRune()
		if err != nil {
			s.err = err
			break
		}

		// Fast path: ASCII goes straight through.
		if size == 1 && r < utf8.RuneSelf {
			p[n] = byte(r)
			n++
			continue
		}

		var buf [utf8.UTFMax]byte
		m := utf8.EncodeRune(buf[:], r)
		s.pending = append(s.pending[:0], buf[:m]...)
	}

	if n > 0 {
		return n, nil
	}
	return 0, s.err
}

// CleanCell removes spreadsheet export artifacts from a header cell:
// surrounding whitespace, an Excel formula wrapper (="...") and stray
// quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
