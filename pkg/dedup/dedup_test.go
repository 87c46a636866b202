package dedup

import (
	"testing"
	"time"
)

func TestShouldProcessFirstSeen(t *testing.T) {
	d := New(time.Minute, 100)
	if !d.ShouldProcess("a") {
		t.Fatalf("first occurrence should be processed")
	}
	if d.ShouldProcess("a") {
		t.Fatalf("repeat within TTL should be dropped")
	}
	if !d.ShouldProcess("b") {
		t.Fatalf("different id should be processed")
	}
}

func TestShouldProcessAfterExpiry(t *testing.T) {
	d := New(10*time.Millisecond, 100)
	if !d.ShouldProcess("a") {
		t.Fatalf("first occurrence should be processed")
	}
	time.Sleep(20 * time.Millisecond)
	if !d.ShouldProcess("a") {
		t.Fatalf("expired id should be processed again")
	}
}

func TestEmptyIDAlwaysProcessed(t *testing.T) {
	d := New(time.Minute, 100)
	if !d.ShouldProcess("") || !d.ShouldProcess("") {
		t.Fatalf("empty id must never be deduplicated")
	}
}
