package contract

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrClassification = errors.New("classification failed")
	ErrUnknownHandler = errors.New("handler is not in the known set")
	ErrUnknownCommand = errors.New("unrecognized workflow command")
)
