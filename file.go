// Package tiffio provides typed read/write access to baseline TIFF rasters
// through a codec session: a strongly-typed attribute model over the tag
// table, and a pixel buffer with scanline-range I/O kept consistent with the
// session's notion of the image layout.
package tiffio

import (
	"image"

	"github.com/pkg/errors"
)

// errRange reports a scanline range outside [0, height] or beyond the pixel
// buffer. The buffer length is fixed at construction time, so growing the
// geometry afterwards shrinks the range that can still be served.
var errRange = errors.New("tiffio: scanline range out of bounds")

// A File is one open TIFF image: a session, its Attributes, and a pixel
// buffer holding the raster row-major with samples interleaved per pixel,
// top row first. A File is not safe for concurrent use.
type File struct {
	*Attributes

	s      Session
	pix    []byte
	closed bool
}

// Open opens the image at path for reading. The whole raster is decoded
// into the pixel buffer before Open returns.
func Open(path string) (*File, error) {
	s, err := openSession(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	f, err := newFile(s)
	if err != nil {
		s.discard()
		return nil, err
	}
	return f, nil
}

// Create creates the image at path for writing: 8 bits per sample, RGB when
// hasAlpha is false and RGBA with one associated-alpha extra sample when it
// is true, one strip per scanline. The pixel buffer starts zeroed; the
// caller populates it and calls Write.
func Create(path string, size Size, hasAlpha bool) (*File, error) {
	s, err := createSession(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	f, err := createFile(s, size, hasAlpha)
	if err != nil {
		s.discard()
		return nil, err
	}
	return f, nil
}

// newFile builds a read-mode File over an opened session.
func newFile(s Session) (*File, error) {
	attr, err := readAttributes(s)
	if err != nil {
		return nil, err
	}

	f := &File{
		Attributes: attr,
		s:          s,
		pix:        make([]byte, bufferLen(attr)),
	}
	if err := f.ReadScanlines(0, attr.height); err != nil {
		return nil, err
	}
	return f, nil
}

// createFile builds a write-mode File over a fresh session.
func createFile(s Session, size Size, hasAlpha bool) (*File, error) {
	samplesPerPixel := uint32(3)
	var extraSamples []uint16
	if hasAlpha {
		samplesPerPixel = 4
		extraSamples = []uint16{esAssociatedAlpha}
	}

	attr, err := newAttributes(s, size, 8, samplesPerPixel, 1,
		pRGB, pcContiguous, oTopLeft, extraSamples)
	if err != nil {
		return nil, err
	}

	return &File{
		Attributes: attr,
		s:          s,
		pix:        make([]byte, bufferLen(attr)),
	}, nil
}

// bufferLen is the pixel buffer byte length for the given attributes. One
// byte per sample: the session only accepts 8-bit samples.
func bufferLen(a *Attributes) int {
	return int(a.width) * int(a.height) * int(a.samplesPerPixel)
}

// Pix returns the pixel buffer itself, not a copy. Its length is fixed at
// construction time.
func (f *File) Pix() []byte { return f.pix }

// Size returns the image extent.
func (f *File) Size() Size {
	return Size{Width: f.width, Height: f.height}
}

// SetSize writes both dimensions through to the session, width first.
func (f *File) SetSize(s Size) error {
	if err := f.SetWidth(s.Width); err != nil {
		return err
	}
	return f.SetHeight(s.Height)
}

// HasAlpha reports whether the image carries an alpha channel. This is an
// approximation derived from the sample count alone; the extra-samples
// codes are not consulted.
func (f *File) HasAlpha() bool { return f.samplesPerPixel == 4 }

// stride is the byte length of one row as the attributes declare it.
func (f *File) stride() int {
	return int(f.samplesPerPixel) * int(f.width)
}

// ReadScanlines decodes rows [from, to) into the pixel buffer, in ascending
// order. The declared row stride is checked against the session's scanline
// size before every row; the first failure stops the loop, leaving buffer
// contents for unread rows undefined.
func (f *File) ReadScanlines(from, to uint32) error {
	if from > to || to > f.height {
		return errRange
	}
	for y := from; y < to; y++ {
		stride := f.stride()
		if got := f.s.ScanlineSize(); stride != got {
			return &GeometryError{Stride: stride, Scanline: got}
		}
		off := int(y) * stride
		if off+stride > len(f.pix) {
			return errRange
		}
		if !f.s.ReadScanline(f.pix[off:off+stride], y) {
			return ScanlineReadError(y)
		}
	}
	return nil
}

// WriteScanlines encodes rows [from, to) from the pixel buffer, in
// ascending order, with the same stride check and first-failure semantics
// as ReadScanlines.
func (f *File) WriteScanlines(from, to uint32) error {
	if from > to || to > f.height {
		return errRange
	}
	for y := from; y < to; y++ {
		stride := f.stride()
		if got := f.s.ScanlineSize(); stride != got {
			return &GeometryError{Stride: stride, Scanline: got}
		}
		off := int(y) * stride
		if off+stride > len(f.pix) {
			return errRange
		}
		if !f.s.WriteScanline(f.pix[off:off+stride], y) {
			return ScanlineWriteError(y)
		}
	}
	return nil
}

// Write encodes the whole raster and flushes the session.
func (f *File) Write() error {
	if err := f.WriteScanlines(0, f.height); err != nil {
		return err
	}
	return f.Flush()
}

// Flush commits buffered scanlines and tags to the backing store.
func (f *File) Flush() error {
	if !f.s.Flush() {
		return FlushError("session did not commit")
	}
	return nil
}

// Close releases the session. The File must not be used afterwards; Close
// itself is idempotent.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.s.Close()
}

// Image returns the raster as an image.Image. Four-sample images come back
// as an *image.RGBA and one-sample images as an *image.Gray sharing the
// pixel buffer; three-sample images are copied into an *image.RGBA with
// opaque alpha. Any other sample count yields nil.
func (f *File) Image() image.Image {
	r := image.Rect(0, 0, int(f.width), int(f.height))
	switch f.samplesPerPixel {
	case 4:
		return &image.RGBA{Pix: f.pix, Stride: f.stride(), Rect: r}
	case 1:
		return &image.Gray{Pix: f.pix, Stride: f.stride(), Rect: r}
	case 3:
		m := image.NewRGBA(r)
		for i, j := 0, 0; i+2 < len(f.pix); i, j = i+3, j+4 {
			m.Pix[j+0] = f.pix[i+0]
			m.Pix[j+1] = f.pix[i+1]
			m.Pix[j+2] = f.pix[i+2]
			m.Pix[j+3] = 0xFF
		}
		return m
	}
	return nil
}
