package ssi

import (
	"errors"
	"testing"
)

func TestParseExpression_Forms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Expression
	}{
		{"existence", `$name`, Expression{Variable: "name"}},
		{
			"equals bare text",
			`$name = foo`,
			Expression{Variable: "name", Operator: "=", Text: "foo"},
		},
		{
			"not equals bare text",
			`$name != foo`,
			Expression{Variable: "name", Operator: "!=", Text: "foo"},
		},
		{
			"quoted text with spaces",
			`$greeting = 'hello world'`,
			Expression{Variable: "greeting", Operator: "=", Text: "hello world"},
		},
		{
			"regex",
			`$name = /ab+c/`,
			Expression{Variable: "name", Operator: "=", Regexp: "ab+c"},
		},
		{
			"negated regex",
			`$name != /ab+c/`,
			Expression{Variable: "name", Operator: "!=", Regexp: "ab+c"},
		},
		{
			"regex with named group",
			`$path = /(?P<dir>[a-z]+)/`,
			Expression{
				Variable: "path",
				Operator: "=",
				Regexp:   "(?P<dir>[a-z]+)",
			},
		},
		{"underscore variable", `$date_local`, Expression{Variable: "date_local"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseExpression(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if *expr != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, *expr)
			}
		})
	}
}

func TestParseExpression_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing sigil", `name = foo`},
		{"unsupported operator", `$name <> foo`},
		{"operator without operand", `$name =`},
		{"empty input", ``},
		{"uppercase variable", `$NAME`},
		{"trailing garbage", `$name = foo bar`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpression(tt.input)
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}

			if !errors.Is(err, ErrGrammar) {
				t.Errorf("expected ErrGrammar, got %v", err)
			}
		})
	}
}

func TestExpression_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		vars     map[string]string
		expected bool
	}{
		{"existence present", `$name`, map[string]string{"name": "x"}, true},
		{"existence empty value", `$name`, map[string]string{"name": ""}, true},
		{"existence absent", `$name`, nil, false},

		{"text equal", `$name = foo`, map[string]string{"name": "foo"}, true},
		{"text unequal", `$name = foo`, map[string]string{"name": "bar"}, false},
		{"text equal unset", `$name = foo`, nil, false},
		{"text not-equal", `$name != foo`, map[string]string{"name": "bar"}, true},
		{"text not-equal same", `$name != foo`, map[string]string{"name": "foo"}, false},
		{"text not-equal unset", `$name != foo`, nil, true},
		{
			"quoted text with space",
			`$name = 'foo bar'`,
			map[string]string{"name": "foo bar"},
			true,
		},

		{"regex match", `$name = /ba+r/`, map[string]string{"name": "baar"}, true},
		{"regex no match", `$name = /ba+r/`, map[string]string{"name": "foo"}, false},
		{
			"regex anchored at start",
			`$name = /bar/`,
			map[string]string{"name": "foobar"},
			false,
		},
		{
			"regex prefix match",
			`$name = /foo/`,
			map[string]string{"name": "foobar"},
			true,
		},
		{"regex unset matches empty", `$name = /x?/`, nil, true},
		{"regex negated", `$name != /ba+r/`, map[string]string{"name": "foo"}, true},
		{"regex negated match", `$name != /ba+r/`, map[string]string{"name": "bar"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseExpression(tt.expr)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			env := NewContext(WithVars(tt.vars))

			result, err := expr.Evaluate(env)
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestExpression_Evaluate_CaptureInjection(t *testing.T) {
	expr, err := ParseExpression(`$path = /(?P<dir>[a-z]+)-(?P<base>[a-z.]*)/`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	env := NewContext(WithVars(map[string]string{"path": "docs-index.html"}))

	result, err := expr.Evaluate(env)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if !result {
		t.Fatal("expected expression to be true")
	}

	val, ok := env.Lookup("dir")
	if !ok || val.Text != "docs" {
		t.Errorf("expected dir='docs', got %v (present=%v)", val.Text, ok)
	}

	val, ok = env.Lookup("base")
	if !ok || val.Text != "index.html" {
		t.Errorf("expected base='index.html', got %v (present=%v)", val.Text, ok)
	}
}

func TestExpression_Evaluate_UnmatchedGroupInjectsEmpty(t *testing.T) {
	expr, err := ParseExpression(`$name = /foo(?P<opt>bar)?/`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	env := NewContext(WithVars(map[string]string{"name": "foo"}))

	result, err := expr.Evaluate(env)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if !result {
		t.Fatal("expected expression to be true")
	}

	val, ok := env.Lookup("opt")
	if !ok {
		t.Fatal("expected unmatched group to be injected")
	}

	if val.Text != "" {
		t.Errorf("expected empty capture, got %q", val.Text)
	}
}

func TestExpression_Evaluate_NoInjectionWhenFalse(t *testing.T) {
	expr, err := ParseExpression(`$name = /(?P<cap>foo)/`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	env := NewContext(WithVars(map[string]string{"name": "bar"}))

	result, err := expr.Evaluate(env)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if result {
		t.Fatal("expected expression to be false")
	}

	if env.Has("cap") {
		t.Error("expected no capture injection on a false result")
	}
}

func TestExpression_Evaluate_NegatedNoMatchNoInjection(t *testing.T) {
	// The result is true but no match occurred, so nothing is injected.
	expr, err := ParseExpression(`$name != /(?P<cap>foo)/`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	env := NewContext(WithVars(map[string]string{"name": "bar"}))

	result, err := expr.Evaluate(env)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if !result {
		t.Fatal("expected expression to be true")
	}

	if env.Has("cap") {
		t.Error("expected no capture injection without a match")
	}
}

func TestExpression_Evaluate_BadPattern(t *testing.T) {
	expr, err := ParseExpression(`$name = /(/`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	env := NewContext()

	if _, err := expr.Evaluate(env); !errors.Is(err, ErrExpression) {
		t.Errorf("expected ErrExpression, got %v", err)
	}
}
