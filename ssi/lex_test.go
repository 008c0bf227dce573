package ssi

import (
	"errors"
	"strings"
	"testing"
)

func TestLexemize_Tokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{"empty input", "", nil},
		{
			"text only",
			"hello world",
			[]Token{{Name: TextToken, Text: "hello world"}},
		},
		{
			"bare verb",
			"<!--#endif-->",
			[]Token{{Name: "ENDIF"}},
		},
		{
			"verb is uppercased",
			"<!--# endif -->",
			[]Token{{Name: "ENDIF"}},
		},
		{
			"text around directive",
			"before<!--#else-->after",
			[]Token{
				{Name: TextToken, Text: "before"},
				{Name: "ELSE"},
				{Name: TextToken, Text: "after"},
			},
		},
		{
			"empty body skipped",
			"a<!--#-->b",
			[]Token{
				{Name: TextToken, Text: "a"},
				{Name: TextToken, Text: "b"},
			},
		},
		{
			"adjacent directives",
			"<!--#else--><!--#endif-->",
			[]Token{{Name: "ELSE"}, {Name: "ENDIF"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := lexemize(tt.input)
			if err != nil {
				t.Fatalf("lexemize error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("expected %d tokens, got %d: %+v",
					len(tt.expected), len(tokens), tokens)
			}

			for i, want := range tt.expected {
				if tokens[i].Name != want.Name || tokens[i].Text != want.Text {
					t.Errorf("token %d: expected %+v, got %+v",
						i, want, tokens[i])
				}
			}
		})
	}
}

func TestLexemize_Attributes(t *testing.T) {
	tokens, err := lexemize(`<!--#echo var="name" default="none" -->`)
	if err != nil {
		t.Fatalf("lexemize error: %v", err)
	}

	if len(tokens) != 1 || tokens[0].Name != "ECHO" {
		t.Fatalf("expected one ECHO token, got %+v", tokens)
	}

	if val, _ := tokens[0].Attrs.Get("var"); val != "name" {
		t.Errorf("expected var='name', got %q", val)
	}

	if val, _ := tokens[0].Attrs.Get("default"); val != "none" {
		t.Errorf("expected default='none', got %q", val)
	}
}

func TestLexemize_MissingEndMarker(t *testing.T) {
	_, err := lexemize("line one\nline two <!--#echo var=\"x\"")
	if err == nil {
		t.Fatal("expected error for unterminated directive")
	}

	if !errors.Is(err, ErrEndMarker) {
		t.Fatalf("expected ErrEndMarker, got %v", err)
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T", err)
	}

	if perr.Line != 2 {
		t.Errorf("expected line 2, got %d", perr.Line)
	}

	if !strings.Contains(err.Error(), "^") {
		t.Errorf("expected caret marker in message, got %q", err.Error())
	}
}

func TestLexemize_BadAttributesPosition(t *testing.T) {
	_, err := lexemize(`ok <!--#echo var=name -->`)
	if err == nil {
		t.Fatal("expected error for unquoted attribute value")
	}

	if !errors.Is(err, ErrGrammar) {
		t.Fatalf("expected ErrGrammar, got %v", err)
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %T", err)
	}

	if perr.Line != 1 || perr.Column <= 1 {
		t.Errorf("expected position on line 1 past the text prefix, got %d:%d",
			perr.Line, perr.Column)
	}
}

func TestCutSpace(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		before string
		after  string
		found  bool
	}{
		{"no space", "endif", "endif", "", false},
		{"single space", "echo var=\"x\"", "echo", "var=\"x\"", true},
		{"run of whitespace", "echo \t var=\"x\"", "echo", "var=\"x\"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after, found := cutSpace(tt.input)
			if before != tt.before || after != tt.after || found != tt.found {
				t.Errorf("expected (%q, %q, %v), got (%q, %q, %v)",
					tt.before, tt.after, tt.found, before, after, found)
			}
		})
	}
}
