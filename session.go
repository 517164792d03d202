package tiffio

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// A Session is one open codec stream for a single image. It mirrors the
// libtiff field API: tag accessors come in exactly two primitive widths and
// report success as a boolean, never an error. Interpreting a failure is the
// caller's job.
//
// A Session is not safe for concurrent use.
type Session interface {
	// GetTag16 and GetTag32 read one scalar tag value.
	GetTag16(id uint16) (uint16, bool)
	GetTag32(id uint16) (uint32, bool)

	// SetTag16 and SetTag32 write one scalar tag value.
	SetTag16(id uint16, v uint16) bool
	SetTag32(id uint16, v uint32) bool

	// ExtraSamples returns the extra-sample interpretation codes declared
	// beyond the base color samples. An image without extra channels
	// yields an empty slice.
	ExtraSamples() ([]uint16, bool)
	SetExtraSamples(codes []uint16) bool

	// ScanlineSize is the byte length of one decoded scanline according to
	// the session's current tag table, or 0 if the table is incomplete.
	ScanlineSize() int

	// ReadScanline decodes row into dst; WriteScanline encodes row from src.
	// dst/src must hold at least ScanlineSize bytes.
	ReadScanline(dst []byte, row uint32) bool
	WriteScanline(src []byte, row uint32) bool

	// Flush commits buffered state to the backing store.
	Flush() bool

	Close() error
}

// fileSession is the built-in Session over a baseline TIFF on disk:
// uncompressed, contiguous-planar, 8 bits per sample, strip-organized.
type fileSession struct {
	f        *os.File
	writable bool
	closed   bool

	features map[uint16]tag

	// Read side, filled by parse.
	byteOrder    binary.ByteOrder
	fsize        int64
	stripOffsets []uint
	stripCounts  []uint

	// Write side: scanlines accumulate here until Flush serializes the file.
	rows  map[uint32][]byte
	dirty bool
}

// openSession opens path and parses its header and first IFD.
func openSession(path string) (*fileSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open session")
	}

	s := &fileSession{
		f:        f,
		features: make(map[uint16]tag),
	}
	if err := s.parse(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// createSession creates (or truncates) path for writing. Nothing hits the
// disk until Flush.
func createSession(path string) (*fileSession, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create session")
	}

	return &fileSession{
		f:        f,
		writable: true,
		features: map[uint16]tag{
			tCompression: {id: tCompression, datatype: dtShort, val: []uint{cNone}},
		},
		rows: make(map[uint32][]byte),
	}, nil
}

func (s *fileSession) GetTag16(id uint16) (uint16, bool) {
	t, ok := s.features[id]
	if !ok || len(t.val) == 0 {
		return 0, false
	}
	return uint16(t.firstVal()), true
}

func (s *fileSession) GetTag32(id uint16) (uint32, bool) {
	t, ok := s.features[id]
	if !ok || len(t.val) == 0 {
		return 0, false
	}
	return uint32(t.firstVal()), true
}

func (s *fileSession) SetTag16(id uint16, v uint16) bool {
	if !s.writable || s.closed {
		return false
	}
	s.features[id] = tag{id: id, datatype: dtShort, val: []uint{uint(v)}}
	s.dirty = true
	return true
}

func (s *fileSession) SetTag32(id uint16, v uint32) bool {
	if !s.writable || s.closed {
		return false
	}
	s.features[id] = tag{id: id, datatype: dtLong, val: []uint{uint(v)}}
	s.dirty = true
	return true
}

// ExtraSamples treats an absent tag as an empty list, the way libtiff's
// defaulted field read does. The reported list is capped at maxExtraSamples.
func (s *fileSession) ExtraSamples() ([]uint16, bool) {
	if s.closed {
		return nil, false
	}
	t, ok := s.features[tExtraSamples]
	if !ok {
		return []uint16{}, true
	}
	n := len(t.val)
	if n > maxExtraSamples {
		n = maxExtraSamples
	}
	codes := make([]uint16, n)
	for i := 0; i < n; i++ {
		codes[i] = uint16(t.val[i])
	}
	return codes, true
}

func (s *fileSession) SetExtraSamples(codes []uint16) bool {
	if !s.writable || s.closed {
		return false
	}
	val := make([]uint, len(codes))
	for i, c := range codes {
		val[i] = uint(c)
	}
	s.features[tExtraSamples] = tag{id: tExtraSamples, datatype: dtShort, val: val}
	s.dirty = true
	return true
}

// ScanlineSize derives the decoded row length from the session's own tag
// table, independent of whatever the caller believes the geometry is.
func (s *fileSession) ScanlineSize() int {
	w := s.features[tImageWidth].firstVal()
	spp := s.features[tSamplesPerPixel].firstVal()
	bps := s.features[tBitsPerSample].firstVal()
	if w == 0 || spp == 0 || bps == 0 {
		return 0
	}
	return int(w) * int(spp) * int(bps) / 8
}

func (s *fileSession) ReadScanline(dst []byte, row uint32) bool {
	if s.writable || s.closed {
		return false
	}
	size := s.ScanlineSize()
	if size <= 0 || len(dst) < size {
		return false
	}
	if uint(row) >= s.features[tImageLength].firstVal() {
		return false
	}

	rps := s.rowsPerStrip()
	strip := int(row / rps)
	rowInStrip := int64(row % rps)
	if strip >= len(s.stripOffsets) {
		return false
	}
	if strip < len(s.stripCounts) && (rowInStrip+1)*int64(size) > int64(s.stripCounts[strip]) {
		return false
	}

	off := int64(s.stripOffsets[strip]) + rowInStrip*int64(size)
	_, err := s.f.ReadAt(dst[:size], off)
	return err == nil
}

func (s *fileSession) WriteScanline(src []byte, row uint32) bool {
	if !s.writable || s.closed {
		return false
	}
	size := s.ScanlineSize()
	if size <= 0 || len(src) < size {
		return false
	}
	if uint(row) >= s.features[tImageLength].firstVal() {
		return false
	}

	buf := make([]byte, size)
	copy(buf, src[:size])
	s.rows[row] = buf
	s.dirty = true
	return true
}

func (s *fileSession) Flush() bool {
	if s.closed {
		return false
	}
	if !s.writable {
		return true
	}
	if err := s.encode(); err != nil {
		return false
	}
	s.dirty = false
	return true
}

// Close releases the file handle. A dirty write session is flushed first,
// the way libtiff writes the directory on close.
func (s *fileSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var encodeErr error
	if s.writable && s.dirty {
		encodeErr = s.encode()
	}
	closeErr := s.f.Close()
	switch {
	case encodeErr != nil && closeErr != nil:
		return errors.Wrapf(encodeErr, "close session: %v", closeErr)
	case encodeErr != nil:
		return encodeErr
	default:
		return errors.Wrap(closeErr, "close session")
	}
}

// discard releases the file handle without serializing buffered state.
// It is used on construction error paths, where flushing would write a
// partially tagged directory to disk.
func (s *fileSession) discard() {
	if s.closed {
		return
	}
	s.closed = true
	s.f.Close()
}

// rowsPerStrip returns the strip height for strip math, treating a missing
// or zero tag as a single strip covering the whole image.
func (s *fileSession) rowsPerStrip() uint32 {
	rps := s.features[tRowsPerStrip].firstVal()
	if rps == 0 {
		rps = s.features[tImageLength].firstVal()
	}
	if rps == 0 {
		rps = 1
	}
	return uint32(rps)
}
