package stream

import (
	"errors"
	"testing"

	"github.com/eleven-am/relay-backend/internal/shared"
	"github.com/eleven-am/relay-backend/internal/transport"
)

func TestManagerCreateMintsUniqueIDs(t *testing.T) {
	m := newTestManager(nil, nil, nil)

	a := m.Create(&fakeConn{}, shared.LanguageEstonian)
	b := m.Create(&fakeConn{}, shared.LanguageEstonian)

	if a.ID() == b.ID() {
		t.Error("every stream must get its own id")
	}
	if m.StreamCount() != 2 {
		t.Errorf("expected 2 registered streams, got %d", m.StreamCount())
	}
	if got, ok := m.Get(a.ID()); !ok || got != a {
		t.Error("expected the session to be retrievable by id")
	}
}

func TestManagerSubscribeUnknownStream(t *testing.T) {
	m := newTestManager(nil, nil, nil)

	_, err := m.Subscribe("not-a-stream", &fakeConn{})
	if !errors.Is(err, shared.ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestManagerSubscribe(t *testing.T) {
	m := newTestManager(nil, nil, nil)
	s := m.Create(&fakeConn{}, "")

	sub := &fakeConn{}
	got, err := m.Subscribe(s.ID(), sub)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if got != s {
		t.Error("expected the subscribed session back")
	}
	if s.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", s.SubscriberCount())
	}
}

func TestManagerStopClosesSourceButKeepsRegistryEntry(t *testing.T) {
	m := newTestManager(nil, nil, nil)
	source := &fakeConn{}
	s := m.Create(source, "")
	s.beginRun()

	m.Stop(s)

	if source.IsOpen() {
		t.Error("stop must close the source socket")
	}
	if s.Transcribing() {
		t.Error("stop must end transcription")
	}
	// Registry cleanup belongs to the disconnect path, not stop itself.
	if _, ok := m.Get(s.ID()); !ok {
		t.Error("stop must leave the registry entry for the disconnect handler")
	}
}

func TestManagerPauseKeepsStreamAlive(t *testing.T) {
	m := newTestManager(nil, nil, nil)
	source := &fakeConn{}
	s := m.Create(source, "")
	s.beginRun()

	m.Pause(s)

	if s.Transcribing() {
		t.Error("pause must suspend forwarding")
	}
	if !source.IsOpen() {
		t.Error("pause must not close the source socket")
	}
	if _, ok := m.Get(s.ID()); !ok {
		t.Error("pause must not remove the stream")
	}
}

func TestManagerSourceDisconnectTearsDown(t *testing.T) {
	m := newTestManager(nil, nil, nil)
	s := m.Create(&fakeConn{}, "")
	s.beginRun()

	sub := &fakeConn{}
	s.AddSubscriber(sub)

	m.HandleSourceDisconnect(s)

	if _, ok := m.Get(s.ID()); ok {
		t.Error("disconnect must remove the registry entry")
	}
	if sub.IsOpen() {
		t.Error("disconnect must close subscriber sockets")
	}
	msgs := sub.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one end message, got %d messages", len(msgs))
	}
	end, ok := msgs[0].(transport.EndMessage)
	if !ok || end.Type != transport.MessageTypeEnd || end.StreamID != s.ID() {
		t.Errorf("unexpected end message %+v", msgs[0])
	}
}

func TestManagerSubscriberDisconnect(t *testing.T) {
	m := newTestManager(nil, nil, nil)
	s := m.Create(&fakeConn{}, "")
	sub := &fakeConn{}
	s.AddSubscriber(sub)

	m.HandleSubscriberDisconnect(s, sub)

	if s.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", s.SubscriberCount())
	}
	if _, ok := m.Get(s.ID()); !ok {
		t.Error("subscriber loss must not end the stream")
	}
}

func TestManagerChangeLanguageMigratesSubscribers(t *testing.T) {
	m := newTestManager(nil, nil, nil)
	source := &fakeConn{}
	old := m.Create(source, shared.LanguageEstonian)
	old.beginRun()

	sub := &fakeConn{}
	old.AddSubscriber(sub)

	next := m.ChangeLanguage(old, shared.LanguageRussian)

	if next.ID() == old.ID() {
		t.Error("language change must mint a new stream id")
	}
	if next.Source() != source {
		t.Error("the new stream must reuse the same source socket")
	}
	if next.TargetLanguage() != shared.LanguageRussian {
		t.Errorf("unexpected target language %q", next.TargetLanguage())
	}

	if _, ok := m.Get(old.ID()); ok {
		t.Error("the old id must stop resolving")
	}
	if _, ok := m.Get(next.ID()); !ok {
		t.Error("the new id must resolve")
	}

	if old.SubscriberCount() != 0 {
		t.Error("subscribers must leave the old session")
	}
	if next.SubscriberCount() != 1 {
		t.Errorf("expected 1 migrated subscriber, got %d", next.SubscriberCount())
	}

	var gotNewID bool
	for _, v := range sub.messages() {
		if msg, ok := v.(transport.StreamIDMessage); ok && msg.StreamID == next.ID() {
			gotNewID = true
		}
	}
	if !gotNewID {
		t.Error("migrated subscribers must be told the new stream id")
	}
}
