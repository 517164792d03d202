package tiffio

import "fmt"

// tag is one entry of a session's tag table.
type tag struct {
	id       uint16
	datatype uint
	val      []uint
}

// firstVal returns the first uint of the tag, or 0 if the tag holds no value.
func (t tag) firstVal() uint {
	if len(t.val) == 0 {
		return 0
	}
	return t.val[0]
}

// Name returns the common name of the tag.
func (t tag) Name() string {
	return tagname(t.id)
}

// String implements Stringer.
func (t tag) String() string {
	return fmt.Sprintf("%s: %v", t.Name(), t.val)
}
