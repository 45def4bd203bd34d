package attachment

import "errors"

var (
	ErrNotADirectory = errors.New("not a directory")
	ErrNotURL        = errors.New("attachment url is not http(s)")
)

// NotADirectoryError is returned when the attachment storage path is
// occupied by something other than a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return e.Path + " already exists and is not a directory"
}

func (e *NotADirectoryError) Is(target error) bool {
	return target == ErrNotADirectory
}
