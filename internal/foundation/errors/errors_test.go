package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docsetbuilder.yml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "docsetbuilder.yml" {
			t.Errorf("expected context file=docsetbuilder.yml, got %v", file)
		}
	})

	t.Run("Error detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("resolve: %w", DocsetError("fallback docset not found").WithCode("fallback-not-found").Build())

		classified, ok := AsClassified(err)
		if !ok || classified.Category() != CategoryDocset {
			t.Fatalf("expected wrapped docset error, got %v", err)
		}
		if GetCode(err) != "fallback-not-found" {
			t.Errorf("expected code fallback-not-found, got %q", GetCode(err))
		}
		if GetCode(errors.New("plain")) != "" {
			t.Error("expected plain errors to carry no code")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("disk full")
	err := WrapError(originalErr, CategoryPersistence, "save commit cache").
		Warning().
		WithContext("path", "/tmp/cache.db").
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}
	if err.IsFatal() {
		t.Error("warning must not be fatal")
	}

	derived := err.WithContext("attempt", 2)
	if _, ok := err.Context().Get("attempt"); ok {
		t.Error("WithContext must not mutate the original error")
	}
	if v, _ := derived.Context().Get("attempt"); v != 2 {
		t.Errorf("expected attempt=2 on derived error, got %v", v)
	}
}

func TestClassifiedErrorIs(t *testing.T) {
	a := BuildError("queue aborted").Build()
	b := BuildError("queue aborted").Build()
	c := BuildError("other").Build()

	if !errors.Is(a, b) {
		t.Error("errors with same category and message should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different messages should not match")
	}
}

func TestBuilderReuse(t *testing.T) {
	b := GitError("open repository").WithCause(errors.New("corrupt")).WithContext("docset", "/a")
	first := b.Build()
	second := b.WithContext("docset", "/b").Build()

	if v, _ := first.Context().GetString("docset"); v != "/a" {
		t.Errorf("expected first error to keep docset=/a, got %q", v)
	}
	if v, _ := second.Context().GetString("docset"); v != "/b" {
		t.Errorf("expected second error docset=/b, got %q", v)
	}
	if first.Error() != "[git:error] open repository: corrupt" {
		t.Errorf("unexpected message %q", first.Error())
	}
}
