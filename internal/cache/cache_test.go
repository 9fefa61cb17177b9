package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("classify:reis")
	k2 := Key("classify:reis")
	k3 := Key("classify:quinoa")

	if k1 != k2 {
		t.Error("same identity must hash to the same key")
	}
	if k1 == k3 {
		t.Error("different identities must not collide")
	}
	if !strings.HasPrefix(k1, "kursbot:v1:") {
		t.Errorf("key %q missing version prefix", k1)
	}
	// Hashed keys stay filesystem-safe regardless of the identity content.
	if strings.ContainsAny(strings.TrimPrefix(k1, "kursbot:v1:"), "/\\ ") {
		t.Errorf("key %q contains unsafe characters", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("Get = (%q, %v), want (v, true)", got, ok)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	_ = c.Set("a", []byte("1"), 0)
	_ = c.Set("b", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after clear")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Hour, time.Hour)
	_ = c.Set("k", []byte("v"), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after TTL expiry")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if _, ok := c.Get(Key("missing")); ok {
		t.Error("expected miss for unknown key")
	}

	key := Key("classify:reis")
	if err := c.Set(key, []byte(`{"group":"KH"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok || string(got) != `{"group":"KH"}` {
		t.Errorf("Get = (%q, %v)", got, ok)
	}

	// A second cache over the same directory sees the entry.
	c2 := NewDiskCache(dir, time.Hour)
	if _, ok := c2.Get(key); !ok {
		t.Error("expected persisted entry to survive a new cache instance")
	}
}

func TestDiskCache_ExpiredEntryRemoved(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("classify:reis")
	if err := c.Set(key, []byte("v"), -time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("expected miss for expired entry")
	}
	if _, err := os.Stat(filepath.Join(dir, key+".cache")); !os.IsNotExist(err) {
		t.Error("expired file should be removed on read")
	}
}

func TestDiskCache_CorruptEntryRemoved(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("classify:reis")
	path := filepath.Join(dir, key+".cache")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, ok := c.Get(key); ok {
		t.Error("expected miss for corrupt entry")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt file should be removed on read")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := Key("classify:reis")

	// Seed only the disk layer.
	seed := NewDiskCache(dir, time.Hour)
	if err := seed.Set(key, []byte("v"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	c := NewLayeredCache(time.Hour, dir, time.Hour)
	got, ok := c.Get(key)
	if !ok || string(got) != "v" {
		t.Fatalf("Get = (%q, %v)", got, ok)
	}

	// After promotion the memory layer serves the entry even when the
	// disk file disappears.
	if err := os.Remove(filepath.Join(dir, key+".cache")); err != nil {
		t.Fatalf("remove disk file: %v", err)
	}
	if _, ok := c.Get(key); !ok {
		t.Error("expected promoted entry in memory layer")
	}
}

func TestLayeredCache_SetWritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Hour, dir, time.Hour)

	key := Key("classify:quinoa")
	if err := c.Set(key, []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	disk := NewDiskCache(dir, time.Hour)
	if _, ok := disk.Get(key); !ok {
		t.Error("expected entry in disk layer")
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected miss after delete")
	}
}
