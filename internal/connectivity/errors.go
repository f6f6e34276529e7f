package connectivity

import "errors"

var (
	// ErrConnect means the link never reached the connected status.
	ErrConnect = errors.New("connectivity: link did not connect")

	// ErrZeroAddress means the link joined but was given the unspecified
	// address. It is returned only after the degraded signal has been shown.
	ErrZeroAddress = errors.New("connectivity: assigned zero address")

	// ErrTimeService means the time reference could not be fetched.
	ErrTimeService = errors.New("connectivity: time service unavailable")
)
