package constants

import "errors"

// ErrInvalidOutputFormat is returned for an --output value other than
// table, json or yaml.
var ErrInvalidOutputFormat = errors.New("invalid output format, expected table, json or yaml")
