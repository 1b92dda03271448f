package kvstore

import (
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	m.Set("k", "v", 0)
	got, ok := m.Get("k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%q, %v), want (v, true)", got, ok)
	}

	if _, ok := m.Get("absent"); ok {
		t.Fatal("absent key reported present")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	m.Set("k", "v", time.Minute)
	if _, ok := m.Get("k"); !ok {
		t.Fatal("fresh entry reported absent")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := m.Get("k"); ok {
		t.Fatal("expired entry reported present")
	}
	// Expired entries are removed lazily; a re-set works.
	m.Set("k", "v2", time.Minute)
	if got, ok := m.Get("k"); !ok || got != "v2" {
		t.Fatalf("Get after re-set = (%q, %v)", got, ok)
	}
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	m.Set("k", "v", 0)
	now = now.Add(1000 * time.Hour)
	if _, ok := m.Get("k"); !ok {
		t.Fatal("no-expiry entry reported absent")
	}
}

func TestMemoryRemove(t *testing.T) {
	m := NewMemory()
	m.Set("k", "v", 0)
	m.Remove("k")
	if _, ok := m.Get("k"); ok {
		t.Fatal("removed key reported present")
	}
	m.Remove("k") // no-op
}
