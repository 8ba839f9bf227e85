package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test refill after waiting
	time.Sleep(time.Second + 100*time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after waiting")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, time.Second)

	// Test initial requests
	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
	}

	// Test limit reached
	if sw.Allow() {
		t.Error("Expected request to be denied when limit is reached")
	}

	// Test window sliding
	time.Sleep(time.Second + 100*time.Millisecond)
	if !sw.Allow() {
		t.Error("Expected request to be allowed after window slides")
	}

	// Test reset
	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("Expected requests to be cleared after reset")
	}
}
func TestJobBucket(t *testing.T) {
	tb := NewJobBucket(6, 2)

	if tb.capacity != 2 {
		t.Errorf("Expected capacity 2, got %d", tb.capacity)
	}
	if tb.refillPeriod != 20*time.Second {
		t.Errorf("Expected refill every 20s, got %v", tb.refillPeriod)
	}
	if !tb.Allow() || !tb.Allow() {
		t.Error("Expected the burst to be allowed")
	}
	if tb.Allow() {
		t.Error("Expected the third submission to be throttled")
	}

	fallback := NewJobBucket(0, 0)
	if fallback.capacity != 1 || fallback.refillPeriod != time.Minute {
		t.Errorf("Expected 1 per minute fallback, got %d per %v", fallback.capacity, fallback.refillPeriod)
	}
}

func TestWaitContextCancelled(t *testing.T) {
	sw := NewSlidingWindow(1, time.Hour)
	sw.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := WaitContext(ctx, sw); err == nil {
		t.Error("Expected WaitContext to give up when the context ends")
	}
}
