package ignite

import (
	"context"
	"testing"

	"github.com/ignitedb/ignite/pkg/options"
)

func TestPutGetDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := NewInstance(context.Background(), "ignite-test", options.WithDataDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Put("a", []byte("1")); err != nil {
		t.Fatal(err)
	}

	value, ok, err := db.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(value) != "1" {
		t.Fatalf("Get(a) = %q, %v, want 1, true", value, ok)
	}

	if err := db.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := db.Get("a"); err != nil || ok {
		t.Fatalf("Get(a) after delete = ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestIteratorScansAscendingRange(t *testing.T) {
	dir := t.TempDir()
	db, err := NewInstance(context.Background(), "ignite-test", options.WithDataDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, k := range []string{"a", "b", "c"} {
		if err := db.Put(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	it, err := db.NewIterator([]byte("a"), []byte("c"))
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var seen []string
	for it.Next() {
		seen = append(seen, string(it.Key()))
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("scanned keys = %v, want [a b]", seen)
	}
}
