package apicollectionv1

import (
	"errors"
)

// ErrBadRequest marks input the handlers reject before touching a collection.
var ErrBadRequest = errors.New("bad request")
