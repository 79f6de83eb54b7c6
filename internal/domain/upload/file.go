package upload

import (
	"fmt"
	"os"
)

// ByteRangeReadable is the capability an upload source must provide:
// a known byte length and random access to contiguous byte ranges.
// Adapters satisfy it explicitly instead of runtime shape-sniffing.
type ByteRangeReadable interface {
	Len() int64
	// Range returns the bytes in [start, end). end is capped at Len.
	Range(start, end int64) ([]byte, error)
}

// MemoryFile adapts an in-memory byte slice.
type MemoryFile struct {
	data []byte
}

func NewMemoryFile(data []byte) *MemoryFile {
	return &MemoryFile{data: data}
}

func (m *MemoryFile) Len() int64 {
	return int64(len(m.data))
}

func (m *MemoryFile) Range(start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid byte range [%d, %d)", start, end)
	}
	if end > int64(len(m.data)) {
		end = int64(len(m.data))
	}
	if start > int64(len(m.data)) {
		return nil, fmt.Errorf("range start %d beyond length %d", start, len(m.data))
	}
	return m.data[start:end], nil
}

// OSFile adapts an opened file on disk using ReadAt, so large videos are
// never held in memory whole.
type OSFile struct {
	f    *os.File
	size int64
}

func NewOSFile(f *os.File) (*OSFile, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat upload file: %w", err)
	}
	return &OSFile{f: f, size: info.Size()}, nil
}

func (o *OSFile) Len() int64 {
	return o.size
}

func (o *OSFile) Range(start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid byte range [%d, %d)", start, end)
	}
	if end > o.size {
		end = o.size
	}
	buf := make([]byte, end-start)
	if _, err := o.f.ReadAt(buf, start); err != nil {
		return nil, fmt.Errorf("read file range [%d, %d): %w", start, end, err)
	}
	return buf, nil
}
