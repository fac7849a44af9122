// Package command turns raw operator text into motion requests.
//
// Parsing works on fixed-capacity buffers; over-long input is truncated.
package command

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// MaxNumericLen bounds the sanitized numeric string.
	MaxNumericLen = 15
	// MaxLineLen bounds the text considered by Tokenize.
	MaxLineLen = 63
	// MaxTokens is the largest number of tokens Tokenize returns.
	MaxTokens = 4
)

var (
	// ErrMalformedCommand is returned when a command lacks required tokens.
	ErrMalformedCommand = errors.New("invalid command")
	// ErrNoDigits means sanitizing left nothing to convert.
	ErrNoDigits = errors.New("no digits")
)

// ParseError reports a numeric literal that could not be converted.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid angle %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Numeric is the result of Sanitize: the kept digits and whether a minus
// sign appeared anywhere in the input.
type Numeric struct {
	Digits   string
	Negative bool
}

// Sanitize keeps ASCII digits and '.' and notes any '-'. Scanning stops
// once MaxNumericLen characters have been kept; the rest is dropped.
func Sanitize(text string) Numeric {
	var buf [MaxNumericLen]byte
	n := 0
	neg := false
	for i := 0; i < len(text) && n < len(buf); i++ {
		ch := text[i]
		switch {
		case ch == '-':
			neg = true
		case ch >= '0' && ch <= '9', ch == '.':
			buf[n] = ch
			n++
		}
	}
	return Numeric{Digits: string(buf[:n]), Negative: neg}
}

// Value converts the sanitized digits into a signed angle.
func (n Numeric) Value() (float64, error) {
	if n.Digits == "" {
		return 0, ErrNoDigits
	}
	v, err := strconv.ParseFloat(n.Digits, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, err
	}
	if n.Negative {
		v = -v
	}
	return v, nil
}

// ParseAngle sanitizes text and converts it, returning a *ParseError when
// nothing usable remains.
func ParseAngle(text string) (float64, error) {
	v, err := Sanitize(text).Value()
	if err != nil {
		return 0, &ParseError{Input: text, Err: err}
	}
	return v, nil
}

// Tokens is a bounded, ordered token list.
type Tokens struct {
	items [MaxTokens]string
	n     int
}

// Len returns the number of tokens.
func (t Tokens) Len() int { return t.n }

// At returns token i, or "" past the last token.
func (t Tokens) At(i int) string {
	if i < 0 || i >= t.n {
		return ""
	}
	return t.items[i]
}

// Slice returns the tokens as a new slice.
func (t Tokens) Slice() []string {
	out := make([]string, t.n)
	copy(out, t.items[:t.n])
	return out
}

// Tokenize splits text on delim into at most MaxTokens non-empty tokens.
// Only the first MaxLineLen bytes are considered; tokens past MaxTokens are
// discarded.
func Tokenize(text string, delim byte) Tokens {
	if len(text) > MaxLineLen {
		text = text[:MaxLineLen]
	}
	var t Tokens
	start := -1
	for i := 0; i <= len(text) && t.n < MaxTokens; i++ {
		if i == len(text) || text[i] == delim {
			if start >= 0 {
				t.items[t.n] = text[start:i]
				t.n++
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	return t
}
