package worker

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/keywatch/internal/model"
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
}

func TestLimiterFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     model.RateLimitingConfig
		wantNil bool
	}{
		{"disabled", model.RateLimitingConfig{Enabled: false, RequestsPerSecond: 2}, true},
		{"zero rate", model.RateLimitingConfig{Enabled: true}, true},
		{"enabled", model.RateLimitingConfig{Enabled: true, RequestsPerSecond: 2, Burst: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LimiterFromConfig(tt.cfg); (got == nil) != tt.wantNil {
				t.Errorf("LimiterFromConfig() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}

func TestLimiter_NilNeverWaits(t *testing.T) {
	var limiter *Limiter
	if err := limiter.Wait(context.Background(), "http://example.com"); err != nil {
		t.Errorf("nil limiter Wait = %v", err)
	}
	if !limiter.Allow("http://example.com") {
		t.Error("nil limiter should allow")
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://google.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "http://example.com"
	if !limiter.Allow(url) {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail once the token bucket is empty and the deadline is near")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://example.com"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}
	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if limiter.Allow("http://EXAMPLE.com/other") {
		t.Errorf("host matching should ignore case")
	}
	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other domain")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	domain := "slow.com"

	limiter.SetDomainRate(domain, 0.1, 1)

	if !limiter.Allow("http://" + domain) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://" + domain) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.com") {
		t.Errorf("other domain should pass")
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("http://Example.com/foo")
	if err != nil {
		t.Fatalf("extractDomain failed: %v", err)
	}
	if domain != "example.com" {
		t.Errorf("expected example.com, got %s", domain)
	}

	if _, err := extractDomain("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
	if _, err := extractDomain("/relative/path"); err == nil {
		t.Errorf("expected error for URL without host")
	}
}
