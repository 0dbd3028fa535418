package probe

import "errors"

var (
	ErrUnhealthy     = errors.New("service not ready")
	ErrUnexpected    = errors.New("unexpected response")
	ErrVerification  = errors.New("verification failed")
	ErrInvalidConfig = errors.New("invalid probe config")
)
