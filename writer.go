package tiffio

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

//------------------------//
// File serializer        //
//------------------------//

// An ifdEntry is one directory entry pending serialization.
type ifdEntry struct {
	id       uint16
	datatype uint16
	val      []uint32
}

func (e ifdEntry) byteLen() uint32 {
	return lengths[e.datatype] * uint32(len(e.val))
}

// putVal writes the entry's values with their natural width.
func (e ifdEntry) putVal(bo binary.ByteOrder, dst []byte) {
	for i, v := range e.val {
		switch e.datatype {
		case dtShort:
			bo.PutUint16(dst[2*i:], uint16(v))
		case dtLong:
			bo.PutUint32(dst[4*i:], v)
		}
	}
}

// encode serializes the session as a little-endian baseline TIFF: header,
// strip data (one row of zeros for every scanline never written), then the
// IFD with its overflow values. The whole file is rebuilt on every call.
func (s *fileSession) encode() error {
	bo := binary.LittleEndian

	w := uint32(s.features[tImageWidth].firstVal())
	h := uint32(s.features[tImageLength].firstVal())
	spp := uint32(s.features[tSamplesPerPixel].firstVal())
	size := s.ScanlineSize()
	if w == 0 || h == 0 || size <= 0 {
		return FormatError("incomplete tag table")
	}

	rps := s.rowsPerStrip()
	nstrips := (h + rps - 1) / rps

	// Strip data lives right after the 8-byte header, rows back to back.
	dataLen := int64(h) * int64(size)
	ifdOffset := 8 + dataLen
	if ifdOffset%2 != 0 {
		ifdOffset++ // Word-align the IFD.
	}

	stripOffsets := make([]uint32, nstrips)
	stripCounts := make([]uint32, nstrips)
	for i := uint32(0); i < nstrips; i++ {
		stripOffsets[i] = 8 + i*rps*uint32(size)
		rows := rps
		if left := h - i*rps; left < rows {
			rows = left
		}
		stripCounts[i] = rows * uint32(size)
	}

	entries := s.directory(spp, stripOffsets, stripCounts)

	buf := new(bytes.Buffer)
	buf.WriteString(leHeader)
	var word [4]byte
	bo.PutUint32(word[:], uint32(ifdOffset))
	buf.Write(word[:])

	zero := make([]byte, size)
	for row := uint32(0); row < h; row++ {
		line := s.rows[row]
		if line == nil {
			line = zero
		}
		buf.Write(line)
	}
	for int64(buf.Len()) < ifdOffset {
		buf.WriteByte(0)
	}

	// Values wider than one word land after the directory, in entry order.
	overflow := ifdOffset + 2 + int64(ifdLen*len(entries)) + 4

	var entry [ifdLen]byte
	bo.PutUint16(word[:], uint16(len(entries)))
	buf.Write(word[:2])
	for _, e := range entries {
		bo.PutUint16(entry[0:], e.id)
		bo.PutUint16(entry[2:], e.datatype)
		bo.PutUint32(entry[4:], uint32(len(e.val)))
		bo.PutUint32(entry[8:], 0)
		if n := e.byteLen(); n <= 4 {
			e.putVal(bo, entry[8:])
		} else {
			bo.PutUint32(entry[8:], uint32(overflow))
			overflow += int64(n)
		}
		buf.Write(entry[:])
	}
	bo.PutUint32(word[:], 0) // No next IFD.
	buf.Write(word[:])

	for _, e := range entries {
		if n := e.byteLen(); n > 4 {
			v := make([]byte, n)
			e.putVal(bo, v)
			buf.Write(v)
		}
	}

	if _, err := s.f.WriteAt(buf.Bytes(), 0); err != nil {
		return errors.Wrap(err, "write session")
	}
	if err := s.f.Truncate(int64(buf.Len())); err != nil {
		return errors.Wrap(err, "write session")
	}
	return errors.Wrap(s.f.Sync(), "write session")
}

// directory converts the tag table into sorted IFD entries, expanding
// BitsPerSample to one value per sample and substituting the computed strip
// layout for whatever the table holds.
func (s *fileSession) directory(spp uint32, stripOffsets, stripCounts []uint32) []ifdEntry {
	entries := make([]ifdEntry, 0, len(s.features)+2)
	for id, t := range s.features {
		switch id {
		case tStripOffsets, tStripByteCounts:
			continue // Computed below.
		case tExtraSamples:
			if len(t.val) == 0 {
				continue
			}
		case tBitsPerSample:
			if spp > 1 && len(t.val) == 1 {
				bps := uint32(t.firstVal())
				val := make([]uint32, spp)
				for i := range val {
					val[i] = bps
				}
				entries = append(entries, ifdEntry{id: id, datatype: dtShort, val: val})
				continue
			}
		}

		val := make([]uint32, len(t.val))
		for i, v := range t.val {
			val[i] = uint32(v)
		}
		entries = append(entries, ifdEntry{id: id, datatype: uint16(t.datatype), val: val})
	}
	entries = append(entries,
		ifdEntry{id: tStripOffsets, datatype: dtLong, val: stripOffsets},
		ifdEntry{id: tStripByteCounts, datatype: dtLong, val: stripCounts},
	)

	// Entries must be in ascending tag order.
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
	return entries
}
