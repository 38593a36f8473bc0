package logbuf

import (
	"testing"

	"github.com/modoterra/devconsole/pkg/core"
)

func TestAppendAssignsIncreasingIDs(t *testing.T) {
	b := New()
	for i := 0; i < 5; i++ {
		b.Append(core.SeverityLog, "line", "")
	}

	entries := b.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ID <= entries[i-1].ID {
			t.Errorf("ids not strictly increasing: %d then %d", entries[i-1].ID, entries[i].ID)
		}
	}
	if entries[0].ID != 1 {
		t.Errorf("first id: got %d, want 1", entries[0].ID)
	}
}

func TestCountTracksAppends(t *testing.T) {
	b := New()
	if b.Count() != 0 {
		t.Fatalf("new buffer count: got %d", b.Count())
	}
	b.Append(core.SeverityWarning, "w", "")
	b.Append(core.SeverityError, "e", "trace")
	if b.Count() != 2 {
		t.Errorf("count: got %d, want 2", b.Count())
	}
}

func TestEntriesIsSnapshot(t *testing.T) {
	b := New()
	b.Append(core.SeverityLog, "a", "")
	snap := b.Entries()
	b.Append(core.SeverityLog, "b", "")
	if len(snap) != 1 {
		t.Errorf("snapshot changed after append: len %d", len(snap))
	}
}

func TestSince(t *testing.T) {
	b := New()
	for _, m := range []string{"a", "b", "c"} {
		b.Append(core.SeverityLog, m, "")
	}

	tests := []struct {
		after int
		want  []string
	}{
		{0, []string{"a", "b", "c"}},
		{-4, []string{"a", "b", "c"}},
		{1, []string{"b", "c"}},
		{3, nil},
		{10, nil},
	}
	for _, tt := range tests {
		got := b.Since(tt.after)
		if len(got) != len(tt.want) {
			t.Errorf("Since(%d): got %d entries, want %d", tt.after, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i].Message != tt.want[i] {
				t.Errorf("Since(%d)[%d]: got %q, want %q", tt.after, i, got[i].Message, tt.want[i])
			}
		}
	}
}

func TestSubscribeReceivesNewEntries(t *testing.T) {
	b := New()
	b.Append(core.SeverityLog, "before", "")

	ch := b.Subscribe()
	b.Append(core.SeverityWarning, "after", "")

	e := <-ch
	if e.Message != "after" || e.Severity != core.SeverityWarning {
		t.Errorf("unexpected entry: %+v", e)
	}

	b.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Error("expected channel closed after unsubscribe")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := New()
	_ = b.Subscribe()
	for i := 0; i < 1000; i++ {
		b.Append(core.SeverityLog, "x", "")
	}
	if b.Count() != 1000 {
		t.Errorf("count: got %d", b.Count())
	}
}
