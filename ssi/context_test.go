package ssi

import (
	"context"
	"testing"
)

func TestContext_Clone_Independence(t *testing.T) {
	base := NewContext(WithVars(map[string]string{"name": "base"}))

	clone := base.Clone()
	clone.SetString("name", "clone")
	clone.SetString("extra", "x")

	if got := base.text("name"); got != "base" {
		t.Errorf("expected base unchanged, got %q", got)
	}

	if base.Has("extra") {
		t.Error("expected clone writes to stay out of the base")
	}

	if got := clone.text("name"); got != "clone" {
		t.Errorf("expected clone override, got %q", got)
	}
}

func TestContext_Clone_AppliesOptions(t *testing.T) {
	base := NewContext(
		WithVars(map[string]string{"site": "example"}),
		WithFileReader(OSFileReader{Root: "/base"}),
	)

	clone := base.Clone(
		WithVars(map[string]string{"page": "index"}),
		WithFetcher(&HTTPFetcher{BaseURL: "http://host"}),
	)

	if got := clone.text("site"); got != "example" {
		t.Errorf("expected inherited variable, got %q", got)
	}

	if got := clone.text("page"); got != "index" {
		t.Errorf("expected option variable, got %q", got)
	}

	fetcher, ok := clone.fetch.(*HTTPFetcher)
	if !ok || fetcher.BaseURL != "http://host" {
		t.Errorf("expected option fetcher on clone, got %+v", clone.fetch)
	}

	reader, ok := clone.files.(OSFileReader)
	if !ok || reader.Root != "/base" {
		t.Errorf("expected inherited file reader, got %+v", clone.files)
	}

	if _, ok := base.fetch.(*HTTPFetcher); ok {
		if base.fetch.(*HTTPFetcher).BaseURL != "" {
			t.Error("expected base fetcher unchanged")
		}
	}
}

func TestContext_Vars_OmitsThunks(t *testing.T) {
	env := NewContext(WithVars(map[string]string{"a": "1", "b": "2"}))
	env.SetThunk("deferred", func(context.Context) (string, error) {
		return "", nil
	})

	vars := env.Vars()

	if len(vars) != 2 {
		t.Fatalf("expected 2 realized variables, got %d: %v", len(vars), vars)
	}

	if vars["a"] != "1" || vars["b"] != "2" {
		t.Errorf("unexpected snapshot: %v", vars)
	}

	if _, ok := vars["deferred"]; ok {
		t.Error("expected thunks omitted from snapshot")
	}
}
