package consumer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Sink receives frames from a Pump. Write is never called concurrently by
// one Pump.
type Sink interface {
	Write(ctx context.Context, frame Frame) error
}

// Forgetter is implemented by sinks that keep per-source state.
type Forgetter interface {
	Forget(name string) error
}

// WriterSink appends every frame to one stream.
type WriterSink struct {
	W           io.Writer
	Compression Compression

	mutex sync.Mutex
}

func NewWriterSink(w io.Writer, c Compression) *WriterSink {
	return &WriterSink{
		W:           w,
		Compression: c,
	}
}

func (s *WriterSink) Write(ctx context.Context, frame Frame) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return WriteFrame(s.W, frame, s.Compression)
}

// FileSink keeps one file per source under Dir holding its latest frame.
// Files are replaced atomically.
type FileSink struct {
	Dir         string
	Compression Compression
}

func NewFileSink(dir string, c Compression) (*FileSink, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, err
	}
	return &FileSink{
		Dir:         dir,
		Compression: c,
	}, nil
}

func (s *FileSink) Filename(name string) string {
	return filepath.Join(s.Dir, name+".slots"+s.Compression.Extension())
}

func (s *FileSink) Write(ctx context.Context, frame Frame) error {

	filename := s.Filename(frame.Name)

	tmp, err := os.CreateTemp(s.Dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = WriteFrame(tmp, frame, s.Compression)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("write '%s': %w", filename, err)
	}

	err = tmp.Close()
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filename)
}

func (s *FileSink) Forget(name string) error {
	err := os.Remove(s.Filename(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ReadFile loads the frame FileSink stored for name.
func (s *FileSink) ReadFile(name string) (Frame, error) {
	f, err := os.Open(s.Filename(name))
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	return ReadFrame(f)
}

// MemorySink keeps the latest frame of every source.
type MemorySink struct {
	mutex  sync.RWMutex
	frames map[string]Frame
	writes int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		frames: map[string]Frame{},
	}
}

func (s *MemorySink) Write(ctx context.Context, frame Frame) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.frames[frame.Name] = frame
	s.writes++
	return nil
}

func (s *MemorySink) Forget(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.frames, name)
	return nil
}

func (s *MemorySink) Frame(name string) (Frame, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	f, ok := s.frames[name]
	return f, ok
}

func (s *MemorySink) Writes() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.writes
}
