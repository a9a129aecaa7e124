package errs

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidBookID = errors.New("book id is not numeric")

	// catalog
	ErrUnauthorized       = errors.New("catalog rejected api key")
	ErrUnavailable        = errors.New("catalog unavailable")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrMalformed          = errors.New("malformed catalog response")

	// local persistence
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsCatalog reports whether err came from the remote catalog.
func IsCatalog(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrMalformed)
}
