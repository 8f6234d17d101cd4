package compaction

import (
	"testing"

	"github.com/ignitedb/ignite/internal/memtable"
	"github.com/ignitedb/ignite/internal/record"
)

func newMemSource(t *testing.T, level int, entries map[string]string) Source {
	t.Helper()
	m := memtable.New()
	for k, v := range entries {
		m.Put([]byte(k), record.FromInline([]byte(v), 1))
	}
	return Source{Iter: m.NewIterator(), Level: level}
}

func TestMergeDedupsPreferringLowerLevel(t *testing.T) {
	fresh := newMemSource(t, 0, map[string]string{"a": "fresh-a", "b": "fresh-b"})
	stale := newMemSource(t, 1, map[string]string{"a": "stale-a", "c": "stale-c"})

	mi := NewMergeIterator([]Source{fresh, stale})

	got := map[string]string{}
	for mi.Next() {
		got[string(mi.Key())] = string(mi.Value().Inline)
	}

	want := map[string]string{"a": "fresh-a", "b": "fresh-b", "c": "stale-c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("got[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestMergeTieBreaksOnFileIDWithinLevel(t *testing.T) {
	older := Source{Iter: memSourceIter(t, map[string]string{"a": "old"}), Level: 0, FileID: 1}
	newer := Source{Iter: memSourceIter(t, map[string]string{"a": "new"}), Level: 0, FileID: 2}

	mi := NewMergeIterator([]Source{older, newer})
	if !mi.Next() {
		t.Fatalf("expected at least one entry")
	}
	if string(mi.Value().Inline) != "new" {
		t.Fatalf("got %q, want new (higher FileID wins within a level)", mi.Value().Inline)
	}
}

func memSourceIter(t *testing.T, entries map[string]string) record.Iterator {
	t.Helper()
	m := memtable.New()
	for k, v := range entries {
		m.Put([]byte(k), record.FromInline([]byte(v), 1))
	}
	return m.NewIterator()
}

func TestMergeOutputIsAscending(t *testing.T) {
	a := newMemSource(t, 0, map[string]string{"d": "1", "b": "2"})
	b := newMemSource(t, 1, map[string]string{"a": "3", "c": "4"})

	mi := NewMergeIterator([]Source{a, b})
	var prev []byte
	count := 0
	for mi.Next() {
		if prev != nil && record.Compare(prev, mi.Key()) >= 0 {
			t.Fatalf("not ascending: %q then %q", prev, mi.Key())
		}
		prev = append([]byte(nil), mi.Key()...)
		count++
	}
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}
}
