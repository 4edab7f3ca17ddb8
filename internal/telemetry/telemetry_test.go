package telemetry

import (
	"context"
	"testing"
)

func TestSetupNoop(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		enabled  bool
	}{
		{"empty endpoint", "", true},
		{"disabled", "http://localhost:4318", false},
	}
	for _, tt := range tests {
		shutdown, err := Setup(context.Background(), "werewolf-test", tt.endpoint, tt.enabled)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("%s: shutdown error: %v", tt.name, err)
		}
	}
}

func TestSetupCreatesProvider(t *testing.T) {
	// Non-routable address: nothing is exported because no span is recorded.
	shutdown, err := Setup(context.Background(), "werewolf-test", "http://192.0.2.1:4318", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}
