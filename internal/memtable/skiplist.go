package memtable

import (
	"math/rand"

	"github.com/ignitedb/ignite/internal/record"
)

const maxLevel = 32

type node struct {
	key     []byte
	value   record.ValueStatus
	forward []*node
}

func newNode(key []byte, value record.ValueStatus, levels int) *node {
	return &node{key: key, value: value, forward: make([]*node, levels+1)}
}

// skipList is a byte-key ordered map, generalized from FlashLog's
// memtable/skip_list.go: the generic `ordered` type constraint there is
// replaced with record.Compare since engine keys are opaque byte
// strings, not one of Go's constraint-compatible ordered primitives.
type skipList struct {
	head   *node
	levels int
	size   int
}

func newSkipList() *skipList {
	return &skipList{head: newNode(nil, record.ValueStatus{}, 0), levels: -1}
}

func (sl *skipList) get(key []byte) (record.ValueStatus, bool) {
	curr := sl.head

	for level := sl.levels; level >= 0; level-- {
		for curr.forward[level] != nil {
			cmp := record.Compare(curr.forward[level].key, key)
			if cmp == 0 {
				return curr.forward[level].value, true
			}
			if cmp > 0 {
				break
			}
			curr = curr.forward[level]
		}
	}

	return record.ValueStatus{}, false
}

func randomLevel() int {
	level := 0
	for rand.Int31()&1 == 0 && level < maxLevel {
		level++
	}
	return level
}

func (sl *skipList) adjustLevels(level int) {
	prev := sl.head.forward
	sl.head = newNode(nil, record.ValueStatus{}, level)
	sl.levels = level
	copy(sl.head.forward, prev)
}

// put inserts or overwrites key's value, returning the prior value (if
// any) so the caller can adjust its byte-size accounting.
func (sl *skipList) put(key []byte, value record.ValueStatus) (record.ValueStatus, bool) {
	newLevel := randomLevel()
	if newLevel > sl.levels {
		sl.adjustLevels(newLevel)
	}

	updates := make([]*node, sl.levels+1)
	x := sl.head

	for level := sl.levels; level >= 0; level-- {
		for x.forward[level] != nil && record.Compare(x.forward[level].key, key) < 0 {
			x = x.forward[level]
		}
		updates[level] = x
	}

	if x.forward[0] != nil && record.Compare(x.forward[0].key, key) == 0 {
		old := x.forward[0].value
		x.forward[0].value = value
		return old, true
	}

	n := newNode(key, value, newLevel)
	for level := 0; level <= newLevel; level++ {
		n.forward[level] = updates[level].forward[level]
		updates[level].forward[level] = n
	}
	sl.size++

	return record.ValueStatus{}, false
}

// entries yields (key, value) pairs in ascending key order.
func (sl *skipList) entries(yield func(key []byte, value record.ValueStatus) bool) {
	curr := sl.head.forward[0]
	for curr != nil {
		if !yield(curr.key, curr.value) {
			return
		}
		curr = curr.forward[0]
	}
}

// seek returns the first node with key >= target, or nil if target is
// nil (meaning "from the start") or past every key in the table.
func (sl *skipList) seek(target []byte) *node {
	if target == nil {
		return sl.head.forward[0]
	}

	curr := sl.head
	for level := sl.levels; level >= 0; level-- {
		for curr.forward[level] != nil && record.Compare(curr.forward[level].key, target) < 0 {
			curr = curr.forward[level]
		}
	}
	return curr.forward[0]
}
