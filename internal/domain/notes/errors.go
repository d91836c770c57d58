package notes

import "errors"

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrInvalidNote  = errors.New("note must have a name and a title")
)
