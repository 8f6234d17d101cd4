package memtable

import (
	"testing"

	"github.com/ignitedb/ignite/internal/record"
)

func TestPutGetRoundTrip(t *testing.T) {
	m := New()
	m.Put([]byte("b"), record.FromInline([]byte("2"), 1))
	m.Put([]byte("a"), record.FromInline([]byte("1"), 2))

	v, ok := m.Get([]byte("a"))
	if !ok || string(v.Inline) != "1" {
		t.Fatalf("Get(a) = %+v, %v", v, ok)
	}

	if _, ok := m.Get([]byte("missing")); ok {
		t.Fatalf("Get(missing) found a value")
	}
}

func TestPutOverwriteUpdatesSize(t *testing.T) {
	m := New()
	m.Put([]byte("k"), record.FromInline([]byte("short"), 1))
	after1 := m.SizeBytes()

	m.Put([]byte("k"), record.FromInline([]byte("a much longer value"), 2))
	after2 := m.SizeBytes()

	if after2 <= after1 {
		t.Fatalf("size did not grow after overwrite with longer value: %d -> %d", after1, after2)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (overwrite must not create a second entry)", m.Len())
	}
}

func TestDeleteStoresTombstoneNotRemoval(t *testing.T) {
	m := New()
	m.Put([]byte("k"), record.FromInline([]byte("v"), 1))
	m.Delete([]byte("k"), 2)

	v, ok := m.Get([]byte("k"))
	if !ok {
		t.Fatalf("tombstoned key should still be present in the table")
	}
	if !v.IsTombstone() {
		t.Fatalf("expected a tombstone, got %+v", v)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestEntriesAreSortedAscending(t *testing.T) {
	m := New()
	keys := []string{"d", "b", "a", "c"}
	for i, k := range keys {
		m.Put([]byte(k), record.FromInline([]byte("v"), uint64(i)))
	}

	var got []string
	m.Entries(func(key []byte, _ record.ValueStatus) bool {
		got = append(got, string(key))
		return true
	})

	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFreezeRejectsFurtherWrites(t *testing.T) {
	m := New()
	m.Put([]byte("a"), record.FromInline([]byte("1"), 1))
	m.Freeze()

	if !m.Frozen() {
		t.Fatalf("Frozen() = false after Freeze()")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Put on a frozen table to panic")
		}
	}()
	m.Put([]byte("b"), record.FromInline([]byte("2"), 2))
}
