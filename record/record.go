// Package record defines the fixed-width record format the sort engine
// operates on and the byte-level key arithmetic every other package builds
// on: key extraction, unsigned lexicographic comparison, and the
// category-of-a-byte mapping used by every radix pass.
package record

// Size is the width of one record in bytes: a 10-byte key followed by a
// 90-byte payload, per the standard gensort/valsort record format.
const Size = 100

// KeySize is the width of the sortable key prefix of a record.
const KeySize = 10

// MaxCategories is the number of distinct values a single key byte can take.
const MaxCategories = 256

// KeyByte returns the i'th byte of the key (0 is most significant) from a
// buffer that starts at a record boundary. i must be in [0, KeySize).
func KeyByte(rec []byte, i int) byte {
	return rec[i]
}

// Compare returns -1, 0, or 1 comparing the KeySize-byte keys of a and b
// under unsigned lexicographic order. Only the first KeySize bytes of each
// slice are examined.
func Compare(a, b []byte) int {
	for i := 0; i < KeySize; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CategoryOf computes the category id a record falls into at radix pass i
// under collapse factor v: key_byte(record, i) / v. v must divide evenly
// into MaxCategories (i.e. be a power of two in [1, MaxCategories]).
func CategoryOf(rec []byte, i int, v int) int {
	return int(rec[i]) / v
}

// Count returns the number of whole records held in buf. buf's length must
// be a multiple of Size; a non-multiple indicates a §7 schema error and is
// the caller's responsibility to check with Validate.
func Count(buf []byte) int {
	return len(buf) / Size
}

// Validate reports a schema error if buf's length is not an exact multiple
// of the record size, per §7's "input object size not a multiple of R"
// taxonomy entry.
func Validate(buf []byte) error {
	if len(buf)%Size != 0 {
		return ErrSchema
	}
	return nil
}

// At returns the i'th record of buf as a sub-slice (no copy).
func At(buf []byte, i int) []byte {
	return buf[i*Size : (i+1)*Size]
}
