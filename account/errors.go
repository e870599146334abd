package account

import "errors"

var (
	// ErrInvalidArgument indicates that a supplied value violates an input rule,
	// eg. a non positive deposit
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState indicates that the account lifecycle state forbids the
	// requested command (the account is not active)
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidOperation indicates that the account is active but a business
	// rule rejects the command, eg. insufficient balance
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnknownEvent is raised by Fold when handed an event it cannot apply
	ErrUnknownEvent = errors.New("unknown account event")
)
