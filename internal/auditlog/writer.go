package auditlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"onehand.ai/internal/reclassify"
)

// Entry is one audit line.
type Entry struct {
	Time   string            `json:"time"`
	Change reclassify.Change `json:"change"`
}

// Logger appends one JSON line per modified item to
// <dir>/audit-YYYY-MM-DD-HH.jsonl.zst, starting a new file each hour.
type Logger struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	hour string
	f    *os.File
	enc  *zstd.Encoder
}

func NewLogger(dir string) *Logger {
	return &Logger{dir: dir, now: time.Now}
}

func (l *Logger) WriteChange(c reclassify.Change) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now().UTC()
	if hour := t.Format("2006-01-02-15"); hour != l.hour {
		if err := l.open(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(Entry{Time: t.Format(time.RFC3339Nano), Change: c})
	if err != nil {
		return err
	}
	if _, err := l.enc.Write(append(b, '\n')); err != nil {
		return err
	}
	// Flushed per entry so a crash loses at most the line being written.
	return l.enc.Flush()
}

func (l *Logger) open(hour string) error {
	if err := l.closeFile(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(l.dir, FilePrefix+"-"+hour+".jsonl.zst")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f, l.enc, l.hour = f, enc, hour
	return nil
}

func (l *Logger) closeFile() error {
	var err error
	if l.enc != nil {
		err = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		if cerr := l.f.Close(); err == nil {
			err = cerr
		}
		l.f = nil
	}
	l.hour = ""
	return err
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFile()
}
