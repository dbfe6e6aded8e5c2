package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Default configuration values.
const (
	DefaultBatchCount         = 100
	DefaultBatchBytes   int64 = 1 << 20
	DefaultSyncInterval       = 100 * time.Millisecond
)

// SyncMode defines when buffered entries reach the disk.
type SyncMode string

const (
	// SyncModeSync writes and fsyncs on every Append.
	SyncModeSync SyncMode = "sync"
	// SyncModeBatch buffers entries and flushes on batch thresholds or the
	// sync interval.
	SyncModeBatch SyncMode = "batch"
)

// Config configures the journal writer.
type Config struct {
	Path string

	SyncMode     SyncMode
	SyncInterval time.Duration

	BatchCount int
	BatchBytes int64
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		SyncMode:     SyncModeBatch,
		SyncInterval: DefaultSyncInterval,
		BatchCount:   DefaultBatchCount,
		BatchBytes:   DefaultBatchBytes,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SyncMode == "" {
		cfg.SyncMode = SyncModeBatch
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.BatchCount <= 0 {
		cfg.BatchCount = DefaultBatchCount
	}
	if cfg.BatchBytes <= 0 {
		cfg.BatchBytes = DefaultBatchBytes
	}
}

// Writer appends entries to a journal file. It is safe for concurrent use.
type Writer struct {
	cfg Config

	mu          sync.Mutex
	file        *os.File
	size        int64
	entries     int
	recovered   int64
	buffer      [][]byte
	bufferBytes int64
	closed      bool

	syncTicker *time.Ticker
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// NewWriter opens or creates the journal at cfg.Path. An existing journal
// is scanned and any torn tail is truncated before appending resumes.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, errors.New("journal: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}
	applyDefaults(&cfg)

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_RDWR, DefaultFilePerm)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	w := &Writer{
		cfg:    cfg,
		file:   file,
		stopCh: make(chan struct{}),
	}
	if err := w.resume(); err != nil {
		file.Close()
		return nil, err
	}

	if cfg.SyncMode == SyncModeBatch {
		w.startSyncLoop()
	}
	return w, nil
}

func (w *Writer) resume() error {
	stat, err := w.file.Stat()
	if err != nil {
		return fmt.Errorf("journal: stat: %w", err)
	}

	valid := int64(0)
	if stat.Size() > 0 {
		r, err := NewReader(io.NewSectionReader(w.file, 0, stat.Size()))
		if err != nil {
			return err
		}
		for {
			if _, err := r.Next(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return err
			}
			w.entries++
		}
		valid = r.Offset()
	}

	if valid < stat.Size() {
		if err := w.file.Truncate(valid); err != nil {
			return fmt.Errorf("journal: truncate torn tail: %w", err)
		}
		w.recovered = stat.Size() - valid
	}
	if _, err := w.file.Seek(valid, io.SeekStart); err != nil {
		return fmt.Errorf("journal: seek: %w", err)
	}
	w.size = valid

	if valid == 0 {
		if _, err := w.file.Write([]byte(MagicBytes)); err != nil {
			return fmt.Errorf("journal: write magic: %w", err)
		}
		w.size = MagicBytesSize
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("journal: sync: %w", err)
		}
	}
	return nil
}

// Append buffers an entry and flushes depending on the sync mode and batch
// thresholds.
func (w *Writer) Append(e *Entry) error {
	frame, err := encodeEntry(e)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	w.buffer = append(w.buffer, frame)
	w.bufferBytes += int64(len(frame))

	if w.cfg.SyncMode == SyncModeSync ||
		len(w.buffer) >= w.cfg.BatchCount || w.bufferBytes >= w.cfg.BatchBytes {
		return w.flushLocked()
	}
	return nil
}

// Flush writes buffered entries and fsyncs the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if len(w.buffer) == 0 {
		return nil
	}

	batch := make([]byte, 0, w.bufferBytes)
	for _, frame := range w.buffer {
		batch = append(batch, frame...)
	}

	n, err := w.file.Write(batch)
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("journal: write batch: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("journal: sync: %w", err)
	}

	w.entries += len(w.buffer)
	w.buffer = nil
	w.bufferBytes = 0
	return nil
}

func (w *Writer) startSyncLoop() {
	w.syncTicker = time.NewTicker(w.cfg.SyncInterval)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.syncTicker.C:
				_ = w.Flush()
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Size returns the number of bytes flushed to the file, magic included.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Entries returns the number of entries flushed, including those found when
// the journal was opened.
func (w *Writer) Entries() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entries
}

// Recovered returns the number of torn tail bytes truncated at open.
func (w *Writer) Recovered() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.recovered
}

// Path returns the journal file path.
func (w *Writer) Path() string { return w.cfg.Path }

// Close flushes pending entries and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stopCh)
	w.mu.Unlock()

	if w.syncTicker != nil {
		w.syncTicker.Stop()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.flushLocked()
	if cerr := w.file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("journal: close: %w", cerr)
	}
	return err
}
