package tiffio

import "fmt"

// A FormatError reports that the input is not a valid TIFF image.
type FormatError string

func (e FormatError) Error() string {
	return fmt.Sprintf("tiffio: invalid format: %s", string(e))
}

// An UnsupportedError reports that the input uses a valid but
// unimplemented feature.
type UnsupportedError string

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("tiffio: unsupported feature: %s", string(e))
}

// An OpenError reports that a codec session could not be opened or created.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("tiffio: cannot open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// A TagReadError reports that the session refused to yield the tag.
type TagReadError uint16

func (e TagReadError) Error() string {
	return fmt.Sprintf("tiffio: cannot read tag %s (%d)", tagname(uint16(e)), uint16(e))
}

// A TagWriteError reports that the session refused to accept the tag.
type TagWriteError uint16

func (e TagWriteError) Error() string {
	return fmt.Sprintf("tiffio: cannot write tag %s (%d)", tagname(uint16(e)), uint16(e))
}

// An UnsupportedWidthError reports a tag access with a primitive width the
// session does not model. Only 16 and 32 bit tag values exist; anything else
// is a caller bug, not an I/O failure.
type UnsupportedWidthError uint

func (e UnsupportedWidthError) Error() string {
	return fmt.Sprintf("tiffio: unsupported tag width %d bits", uint(e))
}

// A GeometryError reports that the row stride derived from the declared
// attributes disagrees with the scanline byte size the session expects.
type GeometryError struct {
	Stride   int // samplesPerPixel * width
	Scanline int // session's scanline byte size
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("tiffio: attribute stride %d does not match scanline size %d", e.Stride, e.Scanline)
}

// A ScanlineReadError reports the row at which a scanline read failed.
type ScanlineReadError uint32

func (e ScanlineReadError) Error() string {
	return fmt.Sprintf("tiffio: cannot read scanline %d", uint32(e))
}

// A ScanlineWriteError reports the row at which a scanline write failed.
type ScanlineWriteError uint32

func (e ScanlineWriteError) Error() string {
	return fmt.Sprintf("tiffio: cannot write scanline %d", uint32(e))
}

// A FlushError reports that the session could not commit buffered state.
type FlushError string

func (e FlushError) Error() string {
	return fmt.Sprintf("tiffio: flush failed: %s", string(e))
}

func tagname(t uint16) string {
	switch t {
	case tImageWidth:
		return "ImageWidth"
	case tImageLength:
		return "ImageLength"
	case tBitsPerSample:
		return "BitsPerSample"
	case tCompression:
		return "Compression"
	case tPhotometricInterpretation:
		return "PhotometricInterpretation"
	case tStripOffsets:
		return "StripOffsets"
	case tOrientation:
		return "Orientation"
	case tSamplesPerPixel:
		return "SamplesPerPixel"
	case tRowsPerStrip:
		return "RowsPerStrip"
	case tStripByteCounts:
		return "StripByteCounts"
	case tPlanarConfiguration:
		return "PlanarConfiguration"
	case tExtraSamples:
		return "ExtraSamples"
	case tSampleFormat:
		return "SampleFormat"
	default:
		return "Unknown"
	}
}
