package main

import (
	"testing"
	"time"
)

func TestMaxPollInterval(t *testing.T) {
	got := maxPollInterval(30 * time.Second)
	want := 16 * time.Minute
	if got != want {
		t.Errorf("maxPollInterval(30s) = %v, want %v", got, want)
	}
}
