package tiffio

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

//------------------------//
// Header parser          //
//------------------------//

// parse reads the header and first IFD of the backing file into the
// session's tag table, then checks that the image is something the baseline
// scanline machinery can serve.
func (s *fileSession) parse() error {
	fi, err := s.f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat session")
	}
	s.fsize = fi.Size()

	p := make([]byte, 8)
	if _, err := s.f.ReadAt(p, 0); err != nil {
		return FormatError("short header")
	}
	switch string(p[0:4]) {
	case leHeader:
		s.byteOrder = binary.LittleEndian
	case beHeader:
		s.byteOrder = binary.BigEndian
	default:
		return FormatError("malformed header")
	}

	ifdOffset := int64(s.byteOrder.Uint32(p[4:8]))
	if err := s.parseIDF(ifdOffset); err != nil {
		return err
	}
	return s.validate()
}

// parseIDF reads all entries of the IFD at ifdOffset into the tag table.
func (s *fileSession) parseIDF(ifdOffset int64) error {
	p := make([]byte, 8)

	// The first two bytes contain the number of entries (12 bytes each).
	if _, err := s.f.ReadAt(p[0:2], ifdOffset); err != nil {
		return FormatError("short IFD")
	}
	numItems := int(s.byteOrder.Uint16(p[0:2]))

	// All IFD entries are read in one chunk.
	p = make([]byte, ifdLen*numItems)
	if _, err := s.f.ReadAt(p, ifdOffset+2); err != nil {
		return FormatError("short IFD")
	}

	for i := 0; i < len(p); i += ifdLen {
		if err := s.parseIFDEntry(p[i : i+ifdLen]); err != nil {
			return err
		}
	}

	return nil
}

// parseIFDEntry decides whether the IFD entry in p is "interesting" and
// stows away the data in the tag table.
func (s *fileSession) parseIFDEntry(p []byte) error {
	tid := s.byteOrder.Uint16(p[0:2])
	switch tid {
	case tImageWidth,
		tImageLength,
		tBitsPerSample,
		tCompression,
		tPhotometricInterpretation,
		tStripOffsets,
		tOrientation,
		tSamplesPerPixel,
		tRowsPerStrip,
		tStripByteCounts,
		tPlanarConfiguration,
		tTileWidth,
		tTileLength,
		tTileOffsets,
		tTileByteCounts,
		tExtraSamples:
		val, dt, err := s.ifdUint(p)
		if err != nil {
			return err
		}
		s.features[tid] = tag{
			id:       tid,
			datatype: dt,
			val:      val,
		}
	case tSampleFormat:
		// Page 27 of the spec: If the SampleFormat is present and
		// the value is not 1 [= unsigned integer data], a Baseline
		// TIFF reader that cannot handle the SampleFormat value
		// must terminate the import process gracefully.
		val, _, err := s.ifdUint(p)
		if err != nil {
			return err
		}
		for _, v := range val {
			if v != 1 {
				return UnsupportedError("sample format")
			}
		}
	}
	return nil
}

// ifdUint decodes the IFD entry in p, which must be of the Byte, Short
// or Long type, and returns the decoded uint values and their datatype.
func (s *fileSession) ifdUint(p []byte) (u []uint, dt uint, err error) {
	var raw []byte
	datatype := s.byteOrder.Uint16(p[2:4])
	if int(datatype) >= len(lengths) || lengths[datatype] == 0 {
		return nil, 0, UnsupportedError("data type")
	}
	count := s.byteOrder.Uint32(p[4:8])
	if count > math.MaxInt32/lengths[datatype] {
		return nil, 0, FormatError("IFD data too large")
	}
	if datalen := lengths[datatype] * count; datalen > 4 {
		// The IFD contains a pointer to the real value. The value
		// cannot be larger than the file it came from.
		if int64(datalen) > s.fsize {
			return nil, 0, FormatError("IFD data too large")
		}
		raw = make([]byte, datalen)
		if _, err = s.f.ReadAt(raw, int64(s.byteOrder.Uint32(p[8:12]))); err != nil {
			return nil, 0, FormatError("short tag value")
		}
	} else {
		raw = p[8 : 8+datalen]
	}

	u = make([]uint, count)
	switch datatype {
	case dtByte:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(raw[i])
		}
	case dtShort:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(s.byteOrder.Uint16(raw[2*i : 2*(i+1)]))
		}
	case dtLong:
		for i := uint32(0); i < count; i++ {
			u[i] = uint(s.byteOrder.Uint32(raw[4*i : 4*(i+1)]))
		}
	default:
		return nil, 0, UnsupportedError("data type")
	}
	return u, uint(datatype), nil
}

// validate rejects layouts the scanline reader cannot serve and backfills
// the TIFF-specified defaults for tags the writer was allowed to omit, the
// way libtiff's defaulted field reads do.
func (s *fileSession) validate() error {
	h := s.features[tImageLength].firstVal()
	if s.features[tImageWidth].firstVal() == 0 || h == 0 {
		return FormatError("missing image dimensions")
	}
	s.defaultTag(tSamplesPerPixel, dtShort, 1)
	s.defaultTag(tPlanarConfiguration, dtShort, pcContiguous)
	s.defaultTag(tOrientation, dtShort, oTopLeft)
	s.defaultTag(tRowsPerStrip, dtLong, h)
	if _, ok := s.features[tBitsPerSample]; !ok {
		return FormatError("BitsPerSample tag missing")
	}
	for _, v := range s.features[tBitsPerSample].val {
		if v != 8 {
			return UnsupportedError("bits per sample")
		}
	}

	// Some tools interpret a missing Compression value as none so we do
	// the same.
	switch s.features[tCompression].firstVal() {
	case cNone, 0:
	default:
		return UnsupportedError("compression")
	}

	if _, ok := s.features[tTileWidth]; ok {
		return UnsupportedError("tiled layout")
	}
	if pc, ok := s.features[tPlanarConfiguration]; ok && pc.firstVal() != pcContiguous {
		return UnsupportedError("planar configuration")
	}

	offsets, ok := s.features[tStripOffsets]
	if !ok || len(offsets.val) == 0 {
		return FormatError("missing strip offsets")
	}
	s.stripOffsets = offsets.val
	s.stripCounts = s.features[tStripByteCounts].val

	// Check if we have the right number of strips and offsets.
	rps := uint(s.rowsPerStrip())
	if n := (h + rps - 1) / rps; uint(len(s.stripOffsets)) < n {
		return FormatError("inconsistent header")
	}
	return nil
}

// defaultTag stows v under id unless the file declared the tag itself.
func (s *fileSession) defaultTag(id uint16, datatype uint, v uint) {
	if _, ok := s.features[id]; !ok {
		s.features[id] = tag{id: id, datatype: datatype, val: []uint{v}}
	}
}
