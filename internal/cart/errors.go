package cart

import "errors"

var ErrLineNotFound = errors.New("cart line not found")
