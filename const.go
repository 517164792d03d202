package tiffio

// A tiff image file contains one or more images. The metadata
// of each image is contained in an Image File Directory (IFD),
// which contains entries of 12 bytes each and is described
// on page 14-16 of the specification. An IFD entry consists of
//
//  - a tag, which describes the signification of the entry,
//  - the data type and length of the entry,
//  - the data itself or a pointer to it if it is more than 4 bytes.
//
// The presence of a length means that each IFD is effectively an array.

const (
	leHeader = "II\x2A\x00" // Header for little-endian files.
	beHeader = "MM\x00\x2A" // Header for big-endian files.

	ifdLen = 12 // Length of an IFD entry in bytes.
)

// Data types (p. 14-16 of the spec).
const (
	dtByte     = 1
	dtASCII    = 2
	dtShort    = 3
	dtLong     = 4
	dtRational = 5
)

// The length of one instance of each data type in bytes.
var lengths = [...]uint32{0, 1, 1, 2, 4, 8}

// Tags (see p. 28-41 of the spec).
const (
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tCompression               = 259
	tPhotometricInterpretation = 262

	tStripOffsets    = 273
	tOrientation     = 274
	tSamplesPerPixel = 277
	tRowsPerStrip    = 278
	tStripByteCounts = 279

	tPlanarConfiguration = 284

	tTileWidth      = 322
	tTileLength     = 323
	tTileOffsets    = 324
	tTileByteCounts = 325

	tExtraSamples = 338
	tSampleFormat = 339
)

// Compression types (defined in various places in the spec and supplements).
const (
	cNone     = 1
	cLZW      = 5
	cDeflate  = 8 // zlib compression.
	cPackBits = 32773
)

// Photometric interpretation values (see p. 37 of the spec).
const (
	pWhiteIsZero = 0
	pBlackIsZero = 1
	pRGB         = 2
	pPaletted    = 3
)

// Planar configuration values (p. 38).
const (
	pcContiguous = 1
	pcSeparate   = 2
)

// Orientation values (p. 36). oTopLeft is the usual top-row-first,
// left-column-first layout.
const (
	oTopLeft     = 1
	oTopRight    = 2
	oBottomRight = 3
	oBottomLeft  = 4
)

// Extra sample interpretation codes (p. 31).
const (
	esUnspecified       = 0
	esAssociatedAlpha   = 1 // Pre-multiplied alpha.
	esUnassociatedAlpha = 2
)

// maxExtraSamples bounds the extra-samples list a session reports.
// Baseline RGB(A) images carry at most one code; four leaves headroom
// for files written by other tools.
const maxExtraSamples = 4
