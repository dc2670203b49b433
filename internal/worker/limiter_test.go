package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}

	if NewLimiter(0, 5) != nil {
		t.Error("expected nil limiter when rate is zero")
	}
}

func TestLimiter_NilNeverBlocks(t *testing.T) {
	var limiter *Limiter
	if err := limiter.Wait(context.Background(), "https://api.tavily.com/search"); err != nil {
		t.Errorf("nil limiter returned error: %v", err)
	}
	if !limiter.Allow("https://api.tavily.com/search") {
		t.Error("nil limiter should always allow")
	}
	limiter.SetHostRate("api.tavily.com", 1, 1)
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if err := limiter.Wait(context.Background(), "https://api.tavily.com/search"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	if limiter.Allow("https://api.tavily.com/search") {
		t.Error("expected allow to fail once the burst is spent")
	}

	if !limiter.Allow("https://www.oncokb.org/api/v1/annotate") {
		t.Error("expected a different host to have its own budget")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetHostRate("slow.example.com", 0.1, 1)

	if !limiter.Allow("https://slow.example.com/a") {
		t.Error("first request should pass")
	}
	if limiter.Allow("https://slow.example.com/b") {
		t.Error("second request should fail")
	}
	if !limiter.Allow("https://fast.example.com") {
		t.Error("other host should pass")
	}
}

func TestLimiter_BadURL(t *testing.T) {
	limiter := NewLimiter(10, 1)
	if err := limiter.Wait(context.Background(), "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
	if err := limiter.Wait(context.Background(), "/relative/path"); err == nil {
		t.Error("expected error for URL without host")
	}
}
