package objstore

import "fmt"

// NotFoundError is returned by OpenRead when no object exists under key.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("objstore: no object %q", e.Key)
}
