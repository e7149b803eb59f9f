package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	c.Set("rev:6.11600,125.17100", "Pioneer Avenue, Lagao")

	value, found := c.Get("rev:6.11600,125.17100")
	if !found {
		t.Error("expected to find cached label")
	}
	if value != "Pioneer Avenue, Lagao" {
		t.Errorf("expected cached label, got %v", value)
	}

	_, found = c.Get("nonexistent")
	if found {
		t.Error("expected not to find nonexistent key")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	c.SetWithTTL("expiring", "value", 100*time.Millisecond)

	_, found := c.Get("expiring")
	if !found {
		t.Error("expected to find item before expiration")
	}

	time.Sleep(150 * time.Millisecond)

	_, found = c.Get("expiring")
	if found {
		t.Error("expected item to be expired")
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, found := c.Get("key1")
	if found {
		t.Error("expected key to be deleted")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	c.Set("key1", "value1")
	c.Set("key2", "value2")

	if c.Count() != 2 {
		t.Errorf("expected count 2, got %d", c.Count())
	}

	c.Clear()

	if c.Count() != 0 {
		t.Errorf("expected count 0 after clear, got %d", c.Count())
	}
}

func TestCacheStats(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	c.Set("key1", "value1")
	c.SetWithTTL("key2", "value2", 50*time.Millisecond)

	stats := c.GetStats()
	if stats.TotalItems != 2 {
		t.Errorf("expected 2 total items, got %d", stats.TotalItems)
	}

	time.Sleep(100 * time.Millisecond)

	stats = c.GetStats()
	if stats.ExpiredItems != 1 {
		t.Errorf("expected 1 expired item, got %d", stats.ExpiredItems)
	}
	if stats.ValidItems != 1 {
		t.Errorf("expected 1 valid item, got %d", stats.ValidItems)
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func(n int) {
			for j := 0; j < 100; j++ {
				c.Set(fmt.Sprintf("key-%d", n), j)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		go func(n int) {
			for j := 0; j < 100; j++ {
				c.Get(fmt.Sprintf("key-%d", n))
			}
			done <- true
		}(i)
	}

	for i := 0; i < 20; i++ {
		<-done
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("key", "value")
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(5*time.Minute, 10*time.Minute)
	defer c.Stop()

	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
