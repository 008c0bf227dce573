package ssi

import (
	"testing"
)

func TestParseCached_ReturnsSameDocument(t *testing.T) {
	t.Cleanup(ClearCache)

	input := `<!--#echo var="name" -->`

	first, err := ParseCached(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	second, err := ParseCached(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if first != second {
		t.Error("expected identical cached document pointers")
	}
}

func TestParseCached_DistinctSources(t *testing.T) {
	t.Cleanup(ClearCache)

	first, err := ParseCached(`a`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	second, err := ParseCached(`b`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if first == second {
		t.Error("expected distinct documents for distinct sources")
	}
}

func TestParseCached_ErrorIsCached(t *testing.T) {
	t.Cleanup(ClearCache)

	input := `<!--#echo novar="x" -->`

	if _, err := ParseCached(input); err == nil {
		t.Fatal("expected parse error")
	}

	if _, err := ParseCached(input); err == nil {
		t.Fatal("expected cached parse error")
	}
}

func TestInvalidate(t *testing.T) {
	t.Cleanup(ClearCache)

	input := `cached`

	first, err := ParseCached(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	Invalidate(input)

	second, err := ParseCached(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if first == second {
		t.Error("expected a fresh document after invalidation")
	}
}

func TestCachedDocument_ConcurrentRenders(t *testing.T) {
	t.Cleanup(ClearCache)

	input := `<!--#if expr="$name" --><!--#echo var="name" --><!--#else -->unset<!--#endif -->`

	doc, err := ParseCached(input)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	results := make(chan string, 2)

	for _, name := range []string{"foo", ""} {
		go func() {
			var env *Context
			if name != "" {
				env = NewContext(WithVars(map[string]string{"name": name}))
			} else {
				env = NewContext()
			}

			output, err := doc.Evaluate(t.Context(), env)
			if err != nil {
				results <- "error: " + err.Error()

				return
			}

			results <- output
		}()
	}

	got := map[string]bool{}
	for range 2 {
		got[<-results] = true
	}

	if !got["foo"] || !got["unset"] {
		t.Errorf("expected both renders, got %v", got)
	}
}
