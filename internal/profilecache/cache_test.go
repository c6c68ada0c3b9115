package profilecache_test

import (
	"testing"
	"time"

	"github.com/linkhubhq/linkhub/internal/profilecache"
)

func TestGetSetInvalidate(t *testing.T) {
	c := profilecache.New[string](time.Minute)

	if _, ok := c.Get("ada"); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Set("ada", "page-v1")
	got, ok := c.Get("ada")
	if !ok || got != "page-v1" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	c.Set("ada", "page-v2")
	if got, _ := c.Get("ada"); got != "page-v2" {
		t.Errorf("Get after overwrite = %q", got)
	}

	c.Invalidate("ada")
	if _, ok := c.Get("ada"); ok {
		t.Error("Get after Invalidate reported a hit")
	}
}

func TestExpiry(t *testing.T) {
	c := profilecache.New[int](10 * time.Millisecond)
	c.Set("ada", 1)

	if _, ok := c.Get("ada"); !ok {
		t.Fatal("fresh entry missed")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("ada"); ok {
		t.Error("expired entry still served")
	}
	// The stale entry stays in the map until Evict runs.
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 before eviction", c.Len())
	}
	if n := c.Evict(); n != 1 {
		t.Errorf("Evict = %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after eviction", c.Len())
	}
}

func TestEvictKeepsFresh(t *testing.T) {
	c := profilecache.New[int](time.Minute)
	c.Set("ada", 1)
	c.Set("grace", 2)

	if n := c.Evict(); n != 0 {
		t.Errorf("Evict dropped %d fresh entries", n)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}
