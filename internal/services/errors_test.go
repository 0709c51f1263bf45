package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"readlist/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "blog", "fetch", "listing failed", base)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	for _, fragment := range []string{"blog", "fetch", "listing failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error string %q", fragment, err.Error())
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrNotFound, "video", "metadata", "missing", nil), "not_found"},
		{fmt.Errorf("get: %w", context.DeadlineExceeded), "timeout"},
		{services.Wrap(services.ErrConfiguration, "summary", "", "no key", nil), "configuration"},
		{errors.New("anything else"), "transient"},
	}
	for _, tt := range tests {
		if got := services.Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
