package tiffio

// Attributes is the typed view over a session's tag table. Every field is
// mirrored in the session: construction either reads all fields from an
// opened session or writes caller-supplied values into a fresh one, and each
// setter immediately writes through. The in-memory field always takes the
// caller's value, even when the session refuses the write; the setter's
// error tells the two apart.
//
// An Attributes is bound to its session for life and is only meaningful
// while that session is open.
type Attributes struct {
	s Session

	width           uint32
	height          uint32
	bitsPerSample   uint32
	samplesPerPixel uint32
	rowsPerStrip    uint32
	photometric     uint32
	planarConfig    uint32
	orientation     uint32
	extraSamples    []uint16
}

// The two primitive tag widths. Following libtiff, the geometry counts are
// 32-bit and the descriptive scalars 16-bit.
const (
	bits16 = 16
	bits32 = 32
)

// getTag reads one scalar tag of the given primitive width. Widths other
// than 16 and 32 fail without touching the session.
func getTag(s Session, id uint16, bits uint) (uint32, error) {
	switch bits {
	case bits16:
		v, ok := s.GetTag16(id)
		if !ok {
			return 0, TagReadError(id)
		}
		return uint32(v), nil
	case bits32:
		v, ok := s.GetTag32(id)
		if !ok {
			return 0, TagReadError(id)
		}
		return v, nil
	default:
		return 0, UnsupportedWidthError(bits)
	}
}

// setTag writes one scalar tag of the given primitive width. Widths other
// than 16 and 32 fail without touching the session.
func setTag(s Session, id uint16, bits uint, v uint32) error {
	switch bits {
	case bits16:
		if !s.SetTag16(id, uint16(v)) {
			return TagWriteError(id)
		}
		return nil
	case bits32:
		if !s.SetTag32(id, v) {
			return TagWriteError(id)
		}
		return nil
	default:
		return UnsupportedWidthError(bits)
	}
}

// readAttributes builds an Attributes from an already-tagged session. The
// tags are read in a fixed order; the first failing read aborts and no
// partial result is returned.
func readAttributes(s Session) (*Attributes, error) {
	a := &Attributes{s: s}

	for _, f := range []struct {
		id   uint16
		bits uint
		dst  *uint32
	}{
		{tBitsPerSample, bits16, &a.bitsPerSample},
		{tSamplesPerPixel, bits16, &a.samplesPerPixel},
		{tRowsPerStrip, bits32, &a.rowsPerStrip},
		{tPhotometricInterpretation, bits16, &a.photometric},
		{tPlanarConfiguration, bits16, &a.planarConfig},
		{tOrientation, bits16, &a.orientation},
		{tImageWidth, bits32, &a.width},
		{tImageLength, bits32, &a.height},
	} {
		v, err := getTag(s, f.id, f.bits)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	codes, ok := s.ExtraSamples()
	if !ok || codes == nil {
		return nil, TagReadError(tExtraSamples)
	}
	a.extraSamples = codes
	return a, nil
}

// newAttributes tags a fresh session with the supplied values. All fields
// are stored locally before any write so later write-throughs do not depend
// on ordering; the first failing write aborts and leaves the session
// partially tagged, unusable for anything but closing.
func newAttributes(s Session, size Size, bitsPerSample, samplesPerPixel, rowsPerStrip,
	photometric, planarConfig, orientation uint32, extraSamples []uint16) (*Attributes, error) {

	a := &Attributes{
		s:               s,
		width:           size.Width,
		height:          size.Height,
		bitsPerSample:   bitsPerSample,
		samplesPerPixel: samplesPerPixel,
		rowsPerStrip:    rowsPerStrip,
		photometric:     photometric,
		planarConfig:    planarConfig,
		orientation:     orientation,
		extraSamples:    append([]uint16(nil), extraSamples...),
	}

	for _, f := range []struct {
		id   uint16
		bits uint
		v    uint32
	}{
		{tBitsPerSample, bits16, a.bitsPerSample},
		{tSamplesPerPixel, bits16, a.samplesPerPixel},
		{tRowsPerStrip, bits32, a.rowsPerStrip},
		{tPhotometricInterpretation, bits16, a.photometric},
		{tPlanarConfiguration, bits16, a.planarConfig},
		{tOrientation, bits16, a.orientation},
		{tImageWidth, bits32, a.width},
		{tImageLength, bits32, a.height},
	} {
		if err := setTag(s, f.id, f.bits, f.v); err != nil {
			return nil, err
		}
	}

	if !s.SetExtraSamples(a.extraSamples) {
		return nil, TagWriteError(tExtraSamples)
	}
	return a, nil
}

func (a *Attributes) Width() uint32           { return a.width }
func (a *Attributes) Height() uint32          { return a.height }
func (a *Attributes) BitsPerSample() uint32   { return a.bitsPerSample }
func (a *Attributes) SamplesPerPixel() uint32 { return a.samplesPerPixel }
func (a *Attributes) RowsPerStrip() uint32    { return a.rowsPerStrip }
func (a *Attributes) Photometric() uint32     { return a.photometric }
func (a *Attributes) PlanarConfig() uint32    { return a.planarConfig }
func (a *Attributes) Orientation() uint32     { return a.orientation }

// ExtraSamples returns a copy of the extra-sample interpretation codes.
func (a *Attributes) ExtraSamples() []uint16 {
	return append([]uint16(nil), a.extraSamples...)
}

func (a *Attributes) SetWidth(v uint32) error {
	a.width = v
	return setTag(a.s, tImageWidth, bits32, v)
}

func (a *Attributes) SetHeight(v uint32) error {
	a.height = v
	return setTag(a.s, tImageLength, bits32, v)
}

func (a *Attributes) SetBitsPerSample(v uint32) error {
	a.bitsPerSample = v
	return setTag(a.s, tBitsPerSample, bits16, v)
}

func (a *Attributes) SetSamplesPerPixel(v uint32) error {
	a.samplesPerPixel = v
	return setTag(a.s, tSamplesPerPixel, bits16, v)
}

func (a *Attributes) SetRowsPerStrip(v uint32) error {
	a.rowsPerStrip = v
	return setTag(a.s, tRowsPerStrip, bits32, v)
}

func (a *Attributes) SetPhotometric(v uint32) error {
	a.photometric = v
	return setTag(a.s, tPhotometricInterpretation, bits16, v)
}

func (a *Attributes) SetPlanarConfig(v uint32) error {
	a.planarConfig = v
	return setTag(a.s, tPlanarConfiguration, bits16, v)
}

func (a *Attributes) SetOrientation(v uint32) error {
	a.orientation = v
	return setTag(a.s, tOrientation, bits16, v)
}

func (a *Attributes) SetExtraSamples(codes []uint16) error {
	a.extraSamples = append([]uint16(nil), codes...)
	if !a.s.SetExtraSamples(a.extraSamples) {
		return TagWriteError(tExtraSamples)
	}
	return nil
}
