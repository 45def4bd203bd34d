package convert

import "errors"

var (
	ErrTargetDirectoryDoesNotExist = errors.New("target directory does not exist")
	ErrBatchIncomplete             = errors.New("batch incomplete")
	ErrUnknownBatchPolicy          = errors.New("unknown batch policy")
	ErrTargetIsSource              = errors.New("target is the source file")
)

// TargetDirectoryDoesNotExistError is returned when a directory or archive
// conversion would write into a directory that is not on disk.
type TargetDirectoryDoesNotExistError struct {
	Path string
}

func (e *TargetDirectoryDoesNotExistError) Error() string {
	return "target directory does not exist: " + e.Path
}

func (e *TargetDirectoryDoesNotExistError) Is(target error) bool {
	return target == ErrTargetDirectoryDoesNotExist
}

// TargetIsSourceError is returned when the resolved output would overwrite
// the file being converted.
type TargetIsSourceError struct {
	Path string
}

func (e *TargetIsSourceError) Error() string {
	return "target is the source file: " + e.Path
}

func (e *TargetIsSourceError) Is(target error) bool {
	return target == ErrTargetIsSource
}
