package stream

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/eleven-am/relay-backend/internal/shared"
)

func newRegistrySession(id string) *Session {
	return newSession(id, &fakeConn{}, shared.LanguageEstonian, clock.New(), testLogger())
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	s := newRegistrySession("abc")
	r.Create("abc", s)

	got, ok := r.Get("abc")
	if !ok {
		t.Fatal("expected stream to be found")
	}
	if got != s {
		t.Error("expected the same session back")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nope"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry()
	r.Create("abc", newRegistrySession("abc"))
	r.Delete("abc")

	if _, ok := r.Get("abc"); ok {
		t.Error("expected stream to be gone after delete")
	}
	if r.Count() != 0 {
		t.Errorf("expected count 0, got %d", r.Count())
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	s := newRegistrySession("abc")
	s.AddSubscriber(&fakeConn{})
	s.AddSubscriber(&fakeConn{})
	r.Create("abc", s)
	r.Create("def", newRegistrySession("def"))

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
	for _, info := range infos {
		if info.StreamID == "abc" && info.Subscribers != 2 {
			t.Errorf("expected 2 subscribers for abc, got %d", info.Subscribers)
		}
		if info.TargetLanguage != shared.LanguageEstonian {
			t.Errorf("unexpected target language %q", info.TargetLanguage)
		}
	}
}
