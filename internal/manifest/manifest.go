package manifest

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ignitedb/ignite/internal/codec"
)

const (
	logFileName      = "MANIFEST"
	snapshotFileName = "MANIFEST.snapshot"
)

// Manifest owns the edit log and in-memory State it reconstructs.
// Apply appends to the log, syncs, and only then mutates the in-memory
// state — the in-memory state never reflects an edit that isn't already
// durable on the manifest log.
type Manifest struct {
	mu           sync.Mutex
	dir          string
	log          *os.File
	state        State
	editsPending int
}

// Open loads dir/MANIFEST.snapshot (if present), replays dir/MANIFEST
// edits appended after it, and reopens the log for further appends.
func Open(dir string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	state, err := loadSnapshot(filepath.Join(dir, snapshotFileName))
	if err != nil {
		return nil, err
	}

	logPath := filepath.Join(dir, logFileName)
	log, err := os.OpenFile(logPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	if err := replayLog(log, &state); err != nil {
		log.Close()
		return nil, err
	}

	if _, err := log.Seek(0, io.SeekEnd); err != nil {
		log.Close()
		return nil, err
	}

	return &Manifest{dir: dir, log: log, state: state}, nil
}

func replayLog(f *os.File, state *State) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	offset := int64(0)
	for {
		block, err := codec.ReadBlockAt(f, offset)
		if err != nil {
			// Short read at EOF, or a torn final edit: both mean "stop
			// here", matching the WAL's torn-tail tolerance.
			return nil
		}
		payload, err := codec.Decode(block)
		if err != nil {
			return nil
		}
		edit, err := Decode(payload)
		if err != nil {
			return nil
		}
		state.apply(edit)
		offset += int64(len(block))
	}
}

// Apply durably appends edit, then updates the in-memory state.
func (m *Manifest) Apply(edit Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	block := codec.Encode(Encode(edit), false)
	if _, err := m.log.Write(block); err != nil {
		return err
	}
	if err := m.log.Sync(); err != nil {
		return err
	}

	m.state.apply(edit)
	m.editsPending++
	return nil
}

// AllocFileID reserves and returns the next SST file id. It does not
// itself append an edit — the caller is expected to use the id in a
// subsequent EditAddSST — but bumping the counter here means concurrent
// compactions and flushes never race on the same id even though neither
// holds the other's lock across the whole write-file-then-commit
// sequence. A crash between AllocFileID and the matching Apply simply
// leaves that id unused, which is harmless since ids only need to be
// unique and increasing, not dense.
func (m *Manifest) AllocFileID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.state.NextFileID
	m.state.NextFileID++
	return id
}

// View returns a point-in-time copy of the manifest's state, safe to
// read without holding any lock.
func (m *Manifest) View() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// EditsSincePreviousSnapshot reports how many edits have been applied
// since the last Snapshot. The engine does not call it; it writes a
// snapshot only on Close.
func (m *Manifest) EditsSincePreviousSnapshot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editsPending
}

// Snapshot writes the current state to MANIFEST.snapshot and truncates
// the edit log, so the next Open doesn't have to replay an unbounded
// history of edits.
func (m *Manifest) Snapshot() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := writeSnapshot(filepath.Join(m.dir, snapshotFileName), m.state); err != nil {
		return err
	}

	if err := m.log.Truncate(0); err != nil {
		return err
	}
	if _, err := m.log.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := m.log.Sync(); err != nil {
		return err
	}

	m.editsPending = 0
	return nil
}

// Close syncs and closes the manifest's log file.
func (m *Manifest) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.log.Sync(); err != nil {
		m.log.Close()
		return err
	}
	return m.log.Close()
}
