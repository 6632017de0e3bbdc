package eventio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/banshee-data/detsim/internal/event"
)

// FileExtension is the extension for event stream files.
const FileExtension = ".detevt"

// MaxRecordSize bounds a single framed record.
const MaxRecordSize = 256 << 20

// Writer frames event records as a 4-byte little-endian length followed by
// the record. It is safe for concurrent use.
type Writer struct {
	w     io.Writer
	mu    sync.Mutex
	count uint64
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEvent appends one framed event.
func (w *Writer) WriteEvent(ev *event.Event) error {
	data := Marshal(ev)
	if len(data) > MaxRecordSize {
		return fmt.Errorf("run %d event %d: record of %d bytes exceeds %d", ev.RunID, ev.EventID, len(data), MaxRecordSize)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("failed to write record length: %w", err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of events written.
func (w *Writer) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Reader reads framed event records.
type Reader struct {
	r  io.Reader
	md event.Metadata
}

// NewReader returns a Reader that links every decoded event to md.
func NewReader(r io.Reader, md event.Metadata) *Reader {
	return &Reader{r: r, md: md}
}

// ReadEvent returns the next event, or io.EOF at a clean end of stream. A
// stream that ends inside a record yields io.ErrUnexpectedEOF.
func (r *Reader) ReadEvent() (*event.Event, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read record length: %w", err)
	}
	size := binary.LittleEndian.Uint32(lenBuf[:])
	if size > MaxRecordSize {
		return nil, malformed(fmt.Sprintf("record length %d", size), nil)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r.r, data); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return Decode(data, r.md)
}

// ReadAll reads events until the end of the stream.
func (r *Reader) ReadAll() ([]*event.Event, error) {
	var out []*event.Event
	for {
		ev, err := r.ReadEvent()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}
