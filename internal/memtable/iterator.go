package memtable

import "github.com/ignitedb/ignite/internal/record"

// Iterator is a forward cursor over a Memtable's live entries (tombstones
// included), satisfying record.Iterator so it composes into the same
// merge heap compaction and flush use for SSTs.
type Iterator struct {
	m    *Memtable
	next *node
	cur  *node
}

// NewIterator returns an Iterator positioned before the first entry.
func (m *Memtable) NewIterator() *Iterator {
	it := &Iterator{m: m}
	it.Seek(nil)
	return it
}

func (it *Iterator) Seek(target []byte) {
	it.m.mu.RLock()
	it.next = it.m.sl.seek(target)
	it.m.mu.RUnlock()
	it.cur = nil
}

func (it *Iterator) Next() bool {
	it.m.mu.RLock()
	defer it.m.mu.RUnlock()

	if it.next == nil {
		it.cur = nil
		return false
	}
	it.cur = it.next
	it.next = it.next.forward[0]
	return true
}

func (it *Iterator) Key() []byte {
	return it.cur.key
}

func (it *Iterator) Value() record.ValueStatus {
	return it.cur.value
}

func (it *Iterator) Close() error {
	return nil
}
