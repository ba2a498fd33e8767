package config

import (
	"testing"
	"time"
)

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("storage.busy_timeout", "5s"); err != nil || d != 5*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("storage.busy_timeout", ""); err != nil || d != 0 {
		t.Fatalf("empty should be zero, got %v, %v", d, err)
	}
	if _, err := ParseDurationField("storage.busy_timeout", "five"); err == nil {
		t.Fatal("garbage must error")
	}
	if _, err := ParseDurationField("storage.busy_timeout", "-1s"); err == nil {
		t.Fatal("negative must error")
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationOrDefault("x", "", 3*time.Second); err != nil || d != 3*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "250ms", 3*time.Second); err != nil || d != 250*time.Millisecond {
		t.Fatalf("got %v, %v", d, err)
	}
}
