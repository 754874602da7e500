// Package category implements the category stack (§3): the ordered
// sequence of per-pass category ids that names a bucket as it flows
// through the radix passes.
//
// §9 flags the original's use of a "/"-joined string as a map key as worth
// re-architecting: a re-implementation should key by the byte sequence
// directly and derive the string only for path construction. Stack does
// exactly that -- it is a []byte, directly convertible to a Go string for
// use as a map key (an exact byte-for-byte key, not a textual round-trip
// through decimal encoding), and Path() is the only place a decimal/slash
// encoding is produced, for object naming.
package category

import (
	"strconv"
	"strings"
)

// Stack is an ordered sequence of category ids, one per radix pass applied
// so far. Category ids fit in a byte (at most record.MaxCategories-1).
type Stack []byte

// Key returns a value suitable for use as a map key: the exact bytes of the
// stack reinterpreted as a string. Two stacks with the same bytes produce
// the same Key; this is an identity conversion, not a textual encoding.
func (s Stack) Key() string {
	return string(s)
}

// FromKey is the inverse of Key.
func FromKey(k string) Stack {
	return Stack(k)
}

// Append returns a new stack with category appended, leaving s unmodified.
func (s Stack) Append(c byte) Stack {
	out := make(Stack, len(s)+1)
	copy(out, s)
	out[len(s)] = c
	return out
}

// Path renders the stack as the slash-joined decimal path segments used in
// intermediate and output object keys (§6 object naming).
func (s Stack) Path() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, "/")
}

// Less reports whether s sorts before o when both are interpreted as byte
// sequences, compared left-to-right (§9's tie-break rule for the final
// terminal task ordering). A shorter stack that is a prefix of a longer one
// sorts first.
func (s Stack) Less(o Stack) bool {
	n := len(s)
	if len(o) < n {
		n = len(o)
	}
	for i := 0; i < n; i++ {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return len(s) < len(o)
}
