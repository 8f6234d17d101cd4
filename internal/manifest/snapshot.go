package manifest

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ignitedb/ignite/internal/codec"
)

// writeSnapshot serializes state as a single codec block: nextFileID(8)
// nextMemtableID(8) | numLevels(4) { level files... } | numSegments(4)
// { segmentID(4) }*. The whole snapshot is one block (not one block per
// file) since it is rewritten wholesale on every Snapshot call, unlike
// the append-only edit log.
func writeSnapshot(path string, state State) error {
	var payload []byte
	payload = binary.LittleEndian.AppendUint64(payload, state.NextFileID)
	payload = binary.LittleEndian.AppendUint64(payload, state.NextMemtableID)

	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(state.Levels)))
	for _, level := range state.Levels {
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(level)))
		for _, f := range level {
			payload = binary.LittleEndian.AppendUint64(payload, f.FileID)
			payload = binary.LittleEndian.AppendUint32(payload, uint32(len(f.MinKey)))
			payload = append(payload, f.MinKey...)
			payload = binary.LittleEndian.AppendUint32(payload, uint32(len(f.MaxKey)))
			payload = append(payload, f.MaxKey...)
		}
	}

	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(state.VlogSegments)))
	for id := range state.VlogSegments {
		payload = binary.LittleEndian.AppendUint32(payload, id)
	}

	block := codec.Encode(payload, true)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, block, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadSnapshot(path string) (State, error) {
	state := newState()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return State{}, err
	}

	payload, err := codec.Decode(data)
	if err != nil {
		return State{}, err
	}

	pos := 0
	readU64 := func() uint64 {
		v := binary.LittleEndian.Uint64(payload[pos : pos+8])
		pos += 8
		return v
	}
	readU32 := func() uint32 {
		v := binary.LittleEndian.Uint32(payload[pos : pos+4])
		pos += 4
		return v
	}
	readBytes := func(n uint32) []byte {
		b := append([]byte(nil), payload[pos:pos+int(n)]...)
		pos += int(n)
		return b
	}

	if len(payload) < 8+8+4 {
		return State{}, fmt.Errorf("manifest: truncated snapshot")
	}

	state.NextFileID = readU64()
	state.NextMemtableID = readU64()

	numLevels := readU32()
	state.Levels = make([][]FileMeta, numLevels)
	for i := uint32(0); i < numLevels; i++ {
		numFiles := readU32()
		files := make([]FileMeta, numFiles)
		for j := uint32(0); j < numFiles; j++ {
			fileID := readU64()
			minLen := readU32()
			minKey := readBytes(minLen)
			maxLen := readU32()
			maxKey := readBytes(maxLen)
			files[j] = FileMeta{FileID: fileID, MinKey: minKey, MaxKey: maxKey}
		}
		state.Levels[i] = files
	}

	numSegments := readU32()
	for i := uint32(0); i < numSegments; i++ {
		state.VlogSegments[readU32()] = true
	}

	return state, nil
}
