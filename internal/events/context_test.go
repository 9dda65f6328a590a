package events

import (
	"context"
	"testing"
)

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()

	if got := RunIDFromContext(ctx); got != "" {
		t.Fatalf("empty context should yield empty run id, got %q", got)
	}

	ctx = ContextWithRunID(ctx, "run_1234abcd")
	if got := RunIDFromContext(ctx); got != "run_1234abcd" {
		t.Fatalf("run id = %q", got)
	}
}
