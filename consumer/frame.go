// Package consumer moves the packed region of dense arrays to somewhere else:
// a stream, a file per array or memory. A Pump polls sources at a bounded
// rate and only ships what changed.
package consumer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// Frame is one upload of a source. Data holds Count records of ElementSize
// bytes and is owned by the frame.
type Frame struct {
	Name        string
	Version     uint64
	ElementSize int
	Count       int
	Data        []byte
	Dirty       *roaring.Bitmap
}

var frameMagic = [4]byte{'S', 'L', 'O', 'T'}

var ErrBadFrame = errors.New("bad frame")

const maxFrameName = 1 << 16

// maxFrameData bounds the decoded data of a frame, whatever its header says.
const maxFrameData = 1 << 36

// WriteFrame encodes a frame as a fixed little-endian header followed by the
// name, the dirty bitmap and the (optionally compressed) data:
//
//	magic[4] version:u64 element_size:u32 count:u32 name_len:u16
//	dirty_len:u32 compression_len:u8 data_len:u64
//	name compression dirty data
func WriteFrame(w io.Writer, f Frame, c Compression) error {

	if len(f.Name) >= maxFrameName {
		return fmt.Errorf("%w: name too long", ErrBadFrame)
	}

	var dirty []byte
	if f.Dirty != nil && !f.Dirty.IsEmpty() {
		b, err := f.Dirty.ToBytes()
		if err != nil {
			return err
		}
		dirty = b
	}

	data, err := compress(f.Data, c)
	if err != nil {
		return err
	}

	header := make([]byte, 0, 35)
	header = append(header, frameMagic[:]...)
	header = binary.LittleEndian.AppendUint64(header, f.Version)
	header = binary.LittleEndian.AppendUint32(header, uint32(f.ElementSize))
	header = binary.LittleEndian.AppendUint32(header, uint32(f.Count))
	header = binary.LittleEndian.AppendUint16(header, uint16(len(f.Name)))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(dirty)))
	header = append(header, byte(len(c)))
	header = binary.LittleEndian.AppendUint64(header, uint64(len(data)))

	for _, chunk := range [][]byte{header, []byte(f.Name), []byte(c), dirty, data} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame decodes one frame written by WriteFrame. It returns io.EOF when r
// is exhausted before the first header byte.
func ReadFrame(r io.Reader) (Frame, error) {

	header := make([]byte, 35)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Frame{}, fmt.Errorf("%w: truncated header", ErrBadFrame)
		}
		return Frame{}, err
	}
	if [4]byte(header[:4]) != frameMagic {
		return Frame{}, fmt.Errorf("%w: bad magic", ErrBadFrame)
	}

	f := Frame{
		Version:     binary.LittleEndian.Uint64(header[4:]),
		ElementSize: int(binary.LittleEndian.Uint32(header[12:])),
		Count:       int(binary.LittleEndian.Uint32(header[16:])),
	}
	nameLen := int(binary.LittleEndian.Uint16(header[20:]))
	dirtyLen := int(binary.LittleEndian.Uint32(header[22:]))
	compressionLen := int(header[26])
	dataLen := binary.LittleEndian.Uint64(header[27:])

	rest := make([]byte, nameLen+compressionLen+dirtyLen)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrBadFrame, err)
	}
	f.Name = string(rest[:nameLen])
	c := Compression(rest[nameLen : nameLen+compressionLen])

	f.Dirty = roaring.New()
	if dirtyLen > 0 {
		if _, err := f.Dirty.FromBuffer(rest[nameLen+compressionLen:]); err != nil {
			return Frame{}, fmt.Errorf("%w: dirty set: %w", ErrBadFrame, err)
		}
	}

	size := uint64(f.ElementSize) * uint64(f.Count)
	if size > maxFrameData || dataLen > maxFrameData {
		return Frame{}, fmt.Errorf("%w: data too large", ErrBadFrame)
	}
	if (c == None || c == "") && dataLen != size {
		return Frame{}, fmt.Errorf("%w: data length %d, expected %d", ErrBadFrame, dataLen, size)
	}

	if dataLen == 0 {
		if size != 0 {
			return Frame{}, fmt.Errorf("%w: missing data", ErrBadFrame)
		}
		f.Data = []byte{}
		return f, nil
	}

	raw, err := NewReader(io.LimitReader(r, int64(dataLen)), c)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrBadFrame, err)
	}
	defer raw.Close()

	// Grow with what actually arrives instead of trusting the header.
	data := &bytes.Buffer{}
	n, err := io.Copy(data, io.LimitReader(raw, int64(size)+1))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: data: %w", ErrBadFrame, err)
	}
	if uint64(n) != size {
		return Frame{}, fmt.Errorf("%w: data: %d bytes, expected %d", ErrBadFrame, n, size)
	}
	f.Data = data.Bytes()

	// Drain what the decompressor left so the next frame starts aligned.
	if _, err := io.Copy(io.Discard, raw); err != nil {
		return Frame{}, fmt.Errorf("%w: data: %w", ErrBadFrame, err)
	}

	return f, nil
}

func compress(data []byte, c Compression) ([]byte, error) {
	if c == None || c == "" || len(data) == 0 {
		return data, nil
	}

	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, c)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
