package cache

import (
	"testing"

	"github.com/ppiankov/varsig/internal/model"
)

func TestMemoryCache_PutGet(t *testing.T) {
	c := NewMemoryCache()
	result := model.OK([]model.SearchItem{{Content: "BRAF V600E is pathogenic", URL: "https://example.com/braf"}})

	c.Put("clinical significance of BRAF V600E", result)

	got, found := c.Get("clinical significance of BRAF V600E")
	if !found {
		t.Fatal("expected cached result")
	}
	if len(got.Items) != 1 || got.Items[0].URL != "https://example.com/braf" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestMemoryCache_Absent(t *testing.T) {
	c := NewMemoryCache()
	if _, found := c.Get("never stored"); found {
		t.Error("expected absent for unseen query")
	}
}

func TestMemoryCache_KeysAreVerbatim(t *testing.T) {
	c := NewMemoryCache()
	c.Put("BRAF V600E", model.OK(nil))

	for _, key := range []string{"braf v600e", "BRAF  V600E", " BRAF V600E"} {
		if _, found := c.Get(key); found {
			t.Errorf("expected miss for %q", key)
		}
	}
}

func TestMemoryCache_ErrorResultsCached(t *testing.T) {
	c := NewMemoryCache()
	c.Put("q", model.Failed("request failed with status 500"))

	got, found := c.Get("q")
	if !found {
		t.Fatal("expected cached result")
	}
	if !got.IsErr() || got.Err != "request failed with status 500" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestMemoryCache_LastWriteWins(t *testing.T) {
	c := NewMemoryCache()
	c.Put("q", model.OK([]model.SearchItem{{Content: "first"}}))
	c.Put("q", model.OK([]model.SearchItem{{Content: "second"}}))

	got, _ := c.Get("q")
	if got.Items[0].Content != "second" {
		t.Errorf("expected last write to win, got %q", got.Items[0].Content)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}
