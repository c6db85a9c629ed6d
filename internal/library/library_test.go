package library

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMessages_RoundTripAndOrder(t *testing.T) {
	s := openStore(t)

	first, err := s.AddMessage("user", "make a timer", nil)
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	second, err := s.AddMessage("assistant", "<!DOCTYPE html>...", []string{"Timer", "Utility"})
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("messages share an id")
	}

	msgs, err := s.Messages()
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(Messages()) = %d, want 2", len(msgs))
	}
	if msgs[0].ID != first.ID || msgs[1].ID != second.ID {
		t.Error("messages not in creation order")
	}
	if msgs[0].Role != "user" || msgs[0].Content != "make a timer" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if !reflect.DeepEqual(msgs[0].Tags, []string{}) {
		t.Errorf("nil tags should round-trip as empty, got %v", msgs[0].Tags)
	}
	if !reflect.DeepEqual(msgs[1].Tags, []string{"Timer", "Utility"}) {
		t.Errorf("tags = %v", msgs[1].Tags)
	}
	if msgs[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not persisted")
	}
}

func TestApps_SaveLoadListDelete(t *testing.T) {
	s := openStore(t)

	saved, err := s.SaveApp("Pomodoro Timer", "<!DOCTYPE html><html></html>", []string{"Timer"})
	if err != nil {
		t.Fatalf("SaveApp() error = %v", err)
	}

	got, err := s.App(saved.ID)
	if err != nil {
		t.Fatalf("App() error = %v", err)
	}
	if got.Title != "Pomodoro Timer" || got.Content != saved.Content {
		t.Errorf("App() = %+v", got)
	}
	if !reflect.DeepEqual(got.Tags, []string{"Timer"}) {
		t.Errorf("tags = %v", got.Tags)
	}

	if _, err := s.SaveApp("Second App", "<html></html>", nil); err != nil {
		t.Fatalf("SaveApp() error = %v", err)
	}

	apps, err := s.Apps()
	if err != nil {
		t.Fatalf("Apps() error = %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("len(Apps()) = %d, want 2", len(apps))
	}
	// Newest first.
	if apps[0].Title != "Second App" {
		t.Errorf("Apps()[0].Title = %q, want newest first", apps[0].Title)
	}

	if err := s.DeleteApp(saved.ID); err != nil {
		t.Fatalf("DeleteApp() error = %v", err)
	}
	if _, err := s.App(saved.ID); err == nil {
		t.Error("App() after delete did not fail")
	}
}

func TestDeleteApp_NotFound(t *testing.T) {
	s := openStore(t)
	err := s.DeleteApp("nope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("DeleteApp() error = %v, want not found", err)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested", "deeper", "library.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.Close()
}
