package tabular

import (
	"fmt"

	"github.com/pbaille/tdconv/internal/domain"
)

// MalformedRecordError reports a row or header that does not fit the
// canonical Todoist columns. It satisfies errors.Is(err, domain.ErrMalformedRecord).
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
	}
	return "malformed record: " + e.Reason
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == domain.ErrMalformedRecord
}
