package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure of the workbook pipeline.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindParse
	KindStorage
	KindFormat
	KindNotFound
)

var kindName = map[ErrorKind]string{
	KindInternal: "INTERNAL_ERROR",
	KindParse:    "PARSE_ERROR",
	KindStorage:  "STORAGE_ERROR",
	KindFormat:   "FORMAT_ERROR",
	KindNotFound: "NOT_FOUND",
}

func (k ErrorKind) String() string {
	if name, ok := kindName[k]; ok {
		return name
	}
	return kindName[KindInternal]
}

type Error struct {
	Kind    ErrorKind
	Message string
	// Unavailable marks storage errors raised without contacting storage,
	// e.g. while the circuit breaker is open.
	Unavailable bool
	Err         error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrParse    = &Error{Kind: KindParse}
	ErrStorage  = &Error{Kind: KindStorage}
	ErrFormat   = &Error{Kind: KindFormat}
	ErrNotFound = &Error{Kind: KindNotFound}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func NewParseError(message string, err error) *Error {
	return &Error{Kind: KindParse, Message: message, Err: err}
}

func NewStorageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func NewStorageUnavailableError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Unavailable: true, Err: err}
}

func NewFormatError(message string, err error) *Error {
	return &Error{Kind: KindFormat, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
