package trackererrs

import "errors"

var (
	ErrOracleUnavailable = errors.New("price oracle unavailable")
	ErrPersistFailure    = errors.New("persist failed")
	ErrUserNotFound      = errors.New("user not found")
	ErrDispatchFailure   = errors.New("dispatch failed")
	ErrHoldingNotFound   = errors.New("holding not found")
	ErrDuplicateHolding  = errors.New("holding with this symbol already exists")
	ErrInvalidHolding    = errors.New("invalid holding")
)
