package record

import "github.com/pkg/errors"

// ErrSchema is returned when a buffer or object's length is not a whole
// multiple of Size. Per §7 this is fatal and indicates corrupt input; it is
// never recovered from internally.
var ErrSchema = errors.New("record: buffer length is not a multiple of record size")
