package storage

import (
	"go.uber.org/zap"
)

// WALSet locates and names the write-ahead log's on-disk generations —
// one file per memtable, named by GenerateSimpleName so a generation's
// id is derivable from its filename alone. It deliberately carries no
// notion of "the active generation": the engine may need several
// generations open at once (the current active one plus older frozen
// ones still awaiting removal after flush), and only the engine's own
// writer mutex can safely serialize appends across them, so WALSet
// stays a stateless directory helper rather than a segment owner.
type WALSet struct {
	dir string             // Directory WAL generation files live under.
	ext string             // File extension (".log").
	log *zap.SugaredLogger // Structured logger for operational visibility.
}

// Config encapsulates the configuration parameters required to
// initialize a WALSet.
type Config struct {
	Dir    string
	Ext    string
	Logger *zap.SugaredLogger
}
