package objectstore

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-kvcms/pkg/interfaces"
)

// ErrFilterInvalid is returned when a query filter cannot be translated or compiled.
var ErrFilterInvalid = errors.New("objectstore: invalid filter")

// NotFoundError reports a missing container/key pair. It matches
// interfaces.ErrObjectNotFound through errors.Is.
type NotFoundError struct {
	Container string
	Key       string
	ID        string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("object %q not found in container %q", e.Key, e.Container)
	case e.ID != "":
		return fmt.Sprintf("object with id %q not found", e.ID)
	default:
		return fmt.Sprintf("container %q has no matching object", e.Container)
	}
}

func (e *NotFoundError) Is(target error) bool {
	return target == interfaces.ErrObjectNotFound
}

// IsNotFound reports whether err signals a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, interfaces.ErrObjectNotFound)
}

// ConflictError reports a Create against an existing key.
type ConflictError struct {
	Container string
	Key       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("object %q already exists in container %q", e.Key, e.Container)
}

func (e *ConflictError) Is(target error) bool {
	return target == interfaces.ErrObjectExists
}
