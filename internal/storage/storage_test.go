package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLocalStorageWriteLines(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	if err := s.WriteLines(ctx, "lists/words.txt", []string{"acme", "falcon"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(s.BaseDir(), "lists", "words.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "acme\nfalcon\n" {
		t.Fatalf("content = %q", data)
	}

	if err := s.WriteLines(ctx, "empty.txt", nil); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "empty.txt"); !ok {
		t.Fatal("empty list should still create its file")
	}
	if ok, _ := s.Exists(ctx, "missing.txt"); ok {
		t.Fatal("missing file reported as existing")
	}
}

func TestGenerateRunIDUnique(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	if a == b || len(a) != 36 {
		t.Fatalf("run ids %q %q", a, b)
	}
}

func TestSQLiteRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	runID := GenerateRunID()
	if err := s.CreateRun(ctx, runID, "acme.com", "acme", "test", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveWords(ctx, runID, "raw", []string{"falcon", "acme", "falcon"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHosts(ctx, runID, []HostRecord{
		{Host: "www.acme.com", Source: "crtsh", Live: true, URL: "https://www.acme.com", Status: 200},
		{Host: "vpn.acme.com", Source: "bruteforce"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEmails(ctx, runID, []string{"ops@acme.com"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CompleteRun(ctx, runID, 3*time.Second, map[string]int{"hosts": 2}); err != nil {
		t.Fatal(err)
	}

	var words int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words WHERE run_id = ?`, runID).Scan(&words); err != nil {
		t.Fatal(err)
	}
	if words != 2 {
		t.Fatalf("stored %d words, want 2 after dedup", words)
	}

	var live string
	if err := s.db.QueryRowContext(ctx, `SELECT host FROM hosts WHERE run_id = ? AND is_live = 1`, runID).Scan(&live); err != nil {
		t.Fatal(err)
	}
	if live != "www.acme.com" {
		t.Fatalf("live host = %s", live)
	}

	var status, summary string
	if err := s.db.QueryRowContext(ctx, `SELECT status, summary_json FROM runs WHERE id = ?`, runID).Scan(&status, &summary); err != nil {
		t.Fatal(err)
	}
	if status != "completed" || summary != `{"hosts":2}` {
		t.Fatalf("run status %q summary %q", status, summary)
	}
}

func TestSQLiteNewWords(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	first, second := GenerateRunID(), GenerateRunID()
	now := time.Now()
	s.CreateRun(ctx, first, "acme.com", "acme", "test", now.Add(-time.Hour))
	s.CreateRun(ctx, second, "acme.com", "acme", "test", now)
	s.SaveWords(ctx, first, "raw", []string{"acme", "falcon"})
	s.SaveWords(ctx, second, "raw", []string{"acme", "falcon", "harbor"})

	fresh, err := s.NewWords(ctx, second, "raw")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fresh, []string{"harbor"}) {
		t.Fatalf("new words = %v", fresh)
	}
}
