package ssi

import (
	"errors"
	"testing"
)

func TestWrapError(t *testing.T) {
	t.Run("passes through an existing Error", func(t *testing.T) {
		derived := ErrGrammar.Wrap(errors.New("inner"))

		if got := WrapError(derived); got != derived {
			t.Errorf("expected the same Error instance, got %v", got)
		}
	})

	t.Run("wraps a plain error", func(t *testing.T) {
		plain := errors.New("plain failure")
		wrapped := WrapError(plain)

		if !errors.Is(wrapped, plain) {
			t.Error("expected wrapped error to unwrap to the original")
		}
	})

	t.Run("finds an Error in a wrap chain", func(t *testing.T) {
		derived := ErrFetch.Wrap(errors.New("inner"))
		chained := &ParseError{Err: derived}

		if got := WrapError(chained); got != derived {
			t.Errorf("expected the chained Error instance, got %v", got)
		}
	})
}

func TestError_SentinelMatching(t *testing.T) {
	derived := ErrGrammar.
		Wrap(errors.New("cause")).
		With()

	if !errors.Is(derived, ErrGrammar) {
		t.Error("expected derived error to match its sentinel")
	}

	if errors.Is(derived, ErrEndMarker) {
		t.Error("expected no match against a different sentinel")
	}
}

func TestNewParseError_Position(t *testing.T) {
	tests := []struct {
		name   string
		source string
		offset int
		line   int
		column int
	}{
		{"start of input", "abc", 0, 1, 1},
		{"mid first line", "abc", 2, 1, 3},
		{"second line", "ab\ncd", 4, 2, 2},
		{"offset past end is clamped", "ab", 10, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := newParseError(ErrGrammar, tt.source, tt.offset)

			if perr.Line != tt.line || perr.Column != tt.column {
				t.Errorf("expected %d:%d, got %d:%d",
					tt.line, tt.column, perr.Line, perr.Column)
			}
		})
	}
}
