package tiffio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubSession is an in-memory Session for exercising the attribute and file
// layers without a backing TIFF.
type stubSession struct {
	tags   map[uint16]uint32
	extras []uint16
	lines  map[uint32][]byte

	scanlineSize int
	refuseGet    map[uint16]bool
	refuseSet    map[uint16]bool
	failReadRow  int64
	failWriteRow int64
	flushFails   bool

	contacts   int // Every method call on the session.
	reads      []uint32
	writes     []uint32
	flushCalls int
	closed     bool
}

func newStubSession() *stubSession {
	return &stubSession{
		tags:         make(map[uint16]uint32),
		extras:       []uint16{},
		lines:        make(map[uint32][]byte),
		refuseGet:    make(map[uint16]bool),
		refuseSet:    make(map[uint16]bool),
		failReadRow:  -1,
		failWriteRow: -1,
	}
}

// tagged pre-populates the stub with a full scalar tag table.
func (s *stubSession) tagged(w, h, bps, spp, rps uint32) *stubSession {
	s.tags[tImageWidth] = w
	s.tags[tImageLength] = h
	s.tags[tBitsPerSample] = bps
	s.tags[tSamplesPerPixel] = spp
	s.tags[tRowsPerStrip] = rps
	s.tags[tPhotometricInterpretation] = pRGB
	s.tags[tPlanarConfiguration] = pcContiguous
	s.tags[tOrientation] = oTopLeft
	s.scanlineSize = int(w) * int(spp) * int(bps) / 8
	return s
}

func (s *stubSession) GetTag16(id uint16) (uint16, bool) {
	s.contacts++
	if s.refuseGet[id] {
		return 0, false
	}
	v, ok := s.tags[id]
	return uint16(v), ok
}

func (s *stubSession) GetTag32(id uint16) (uint32, bool) {
	s.contacts++
	if s.refuseGet[id] {
		return 0, false
	}
	v, ok := s.tags[id]
	return v, ok
}

func (s *stubSession) SetTag16(id uint16, v uint16) bool {
	s.contacts++
	if s.refuseSet[id] {
		return false
	}
	s.tags[id] = uint32(v)
	return true
}

func (s *stubSession) SetTag32(id uint16, v uint32) bool {
	s.contacts++
	if s.refuseSet[id] {
		return false
	}
	s.tags[id] = v
	return true
}

func (s *stubSession) ExtraSamples() ([]uint16, bool) {
	s.contacts++
	if s.refuseGet[tExtraSamples] {
		return nil, false
	}
	codes := make([]uint16, len(s.extras))
	copy(codes, s.extras)
	return codes, true
}

func (s *stubSession) SetExtraSamples(codes []uint16) bool {
	s.contacts++
	if s.refuseSet[tExtraSamples] {
		return false
	}
	s.extras = append([]uint16(nil), codes...)
	return true
}

func (s *stubSession) ScanlineSize() int { return s.scanlineSize }

func (s *stubSession) ReadScanline(dst []byte, row uint32) bool {
	s.contacts++
	s.reads = append(s.reads, row)
	if s.failReadRow == int64(row) {
		return false
	}
	copy(dst, s.lines[row])
	return true
}

func (s *stubSession) WriteScanline(src []byte, row uint32) bool {
	s.contacts++
	s.writes = append(s.writes, row)
	if s.failWriteRow == int64(row) {
		return false
	}
	s.lines[row] = append([]byte(nil), src...)
	return true
}

func (s *stubSession) Flush() bool {
	s.contacts++
	s.flushCalls++
	return !s.flushFails
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func TestReadAttributes(t *testing.T) {
	s := newStubSession().tagged(640, 480, 8, 4, 1)
	s.extras = []uint16{esAssociatedAlpha}

	a, err := readAttributes(s)
	assert.NoError(t, err)
	assert.Equal(t, uint32(640), a.Width())
	assert.Equal(t, uint32(480), a.Height())
	assert.Equal(t, uint32(8), a.BitsPerSample())
	assert.Equal(t, uint32(4), a.SamplesPerPixel())
	assert.Equal(t, uint32(1), a.RowsPerStrip())
	assert.Equal(t, uint32(pRGB), a.Photometric())
	assert.Equal(t, uint32(pcContiguous), a.PlanarConfig())
	assert.Equal(t, uint32(oTopLeft), a.Orientation())
	assert.Equal(t, []uint16{esAssociatedAlpha}, a.ExtraSamples())
}

func TestReadAttributesFirstFailure(t *testing.T) {
	s := newStubSession().tagged(2, 2, 8, 3, 1)
	s.refuseGet[tPhotometricInterpretation] = true

	a, err := readAttributes(s)
	assert.Nil(t, a)
	assert.Equal(t, TagReadError(tPhotometricInterpretation), err)
}

func TestReadAttributesExtraSamplesFailure(t *testing.T) {
	s := newStubSession().tagged(2, 2, 8, 3, 1)
	s.refuseGet[tExtraSamples] = true

	a, err := readAttributes(s)
	assert.Nil(t, a)
	assert.Equal(t, TagReadError(tExtraSamples), err)
}

func TestNewAttributes(t *testing.T) {
	s := newStubSession()

	a, err := newAttributes(s, Size{Width: 3, Height: 5}, 8, 4, 1,
		pRGB, pcContiguous, oTopLeft, []uint16{esAssociatedAlpha})
	assert.NoError(t, err)

	// Every field landed in the session's tag table.
	assert.Equal(t, uint32(3), s.tags[tImageWidth])
	assert.Equal(t, uint32(5), s.tags[tImageLength])
	assert.Equal(t, uint32(8), s.tags[tBitsPerSample])
	assert.Equal(t, uint32(4), s.tags[tSamplesPerPixel])
	assert.Equal(t, uint32(1), s.tags[tRowsPerStrip])
	assert.Equal(t, uint32(pRGB), s.tags[tPhotometricInterpretation])
	assert.Equal(t, uint32(pcContiguous), s.tags[tPlanarConfiguration])
	assert.Equal(t, uint32(oTopLeft), s.tags[tOrientation])
	assert.Equal(t, []uint16{esAssociatedAlpha}, s.extras)

	assert.Equal(t, uint32(3), a.Width())
	assert.Equal(t, uint32(5), a.Height())
}

func TestNewAttributesFirstFailure(t *testing.T) {
	s := newStubSession()
	s.refuseSet[tRowsPerStrip] = true

	a, err := newAttributes(s, Size{Width: 3, Height: 5}, 8, 3, 1,
		pRGB, pcContiguous, oTopLeft, nil)
	assert.Nil(t, a)
	assert.Equal(t, TagWriteError(tRowsPerStrip), err)

	// Writes before the failing one went through, later ones never ran.
	assert.Equal(t, uint32(8), s.tags[tBitsPerSample])
	assert.NotContains(t, s.tags, tImageWidth)
}

func TestSetterWriteThrough(t *testing.T) {
	s := newStubSession().tagged(2, 2, 8, 3, 1)
	a, err := readAttributes(s)
	assert.NoError(t, err)

	assert.NoError(t, a.SetWidth(99))
	assert.Equal(t, uint32(99), a.Width())
	assert.Equal(t, uint32(99), s.tags[tImageWidth])

	assert.NoError(t, a.SetExtraSamples([]uint16{esUnassociatedAlpha}))
	assert.Equal(t, []uint16{esUnassociatedAlpha}, s.extras)
}

func TestSetterFailureKeepsCallerValue(t *testing.T) {
	s := newStubSession().tagged(2, 2, 8, 3, 1)
	a, err := readAttributes(s)
	assert.NoError(t, err)

	s.refuseSet[tImageWidth] = true
	err = a.SetWidth(7)
	assert.Equal(t, TagWriteError(tImageWidth), err)

	// The field reflects the caller's intent even though the session
	// refused the write.
	assert.Equal(t, uint32(7), a.Width())
	assert.Equal(t, uint32(2), s.tags[tImageWidth])
}

func TestTagWidthDispatch(t *testing.T) {
	s := newStubSession().tagged(2, 2, 8, 3, 1)

	_, err := getTag(s, tImageWidth, 8)
	assert.Equal(t, UnsupportedWidthError(8), err)
	assert.Zero(t, s.contacts, "unsupported width must not touch the session")

	err = setTag(s, tImageWidth, 64, 1)
	assert.Equal(t, UnsupportedWidthError(64), err)
	assert.Zero(t, s.contacts, "unsupported width must not touch the session")
}
