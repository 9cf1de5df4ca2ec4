package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/braunma/dem-console/internal/constants"
)

// DEM status codes besides 200 and 403
const (
	StatusNotFound     = 402
	StatusPageNotFound = http.StatusNotFound
	StatusConflict     = http.StatusConflict
)

var (
	// ErrUnreachable is returned when the DEM does not answer at all
	ErrUnreachable = errors.New(constants.MsgUnreachable)
	// ErrForbidden is returned when the DEM rejects the credentials
	ErrForbidden = errors.New(constants.MsgForbidden)
)

// APIError is any reply other than 200 or 403
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Error %d : %s", e.Status, e.Body)
}

// NotFound reports whether the addressed object does not exist
func (e *APIError) NotFound() bool {
	return e.Status == StatusNotFound || e.Status == StatusPageNotFound
}

// IsNotFound reports whether err is an APIError for a missing object
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotFound()
}

// DropsSession reports whether err ends the session
func DropsSession(err error) bool {
	return errors.Is(err, ErrUnreachable) || errors.Is(err, ErrForbidden)
}
