package workbench

import (
	"testing"

	"github.com/Bahjat/formfill/internal/model"
)

func TestStore_CreateGetDelete(t *testing.T) {
	s := NewStore(10)
	id := s.Create()
	if id == "" {
		t.Fatal("Create returned empty id")
	}

	sess, ok := s.Get(id)
	if !ok || sess.ID != id || sess.HasContent {
		t.Fatalf("Get(%q) = %+v, %v", id, sess, ok)
	}

	if !s.Delete(id) {
		t.Error("Delete of existing session returned false")
	}
	if s.Delete(id) {
		t.Error("second Delete returned true")
	}
	if _, ok := s.Get(id); ok {
		t.Error("session still present after Delete")
	}
}

func TestStore_EvictsOldest(t *testing.T) {
	s := NewStore(2)
	first := s.Create()
	second := s.Create()
	third := s.Create()

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if _, ok := s.Get(first); ok {
		t.Error("oldest session was not evicted")
	}
	for _, id := range []string{second, third} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("session %s evicted too early", id)
		}
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore(1)
	id := s.Create()
	s.Update(id, func(sess *Session) {
		sess.Specs = []model.FieldSpec{{Name: "a"}}
	})

	got, _ := s.Get(id)
	got.Specs[0].Name = "mutated"

	again, _ := s.Get(id)
	if again.Specs[0].Name != "a" {
		t.Errorf("stored spec mutated through copy: %q", again.Specs[0].Name)
	}
}

func TestStore_UpdateUnknown(t *testing.T) {
	if NewStore(1).Update("missing", func(*Session) {}) {
		t.Error("Update of unknown session returned true")
	}
}
