package node

import "errors"

// ErrInvalidBlockValidator is returned by HandleBlock when a block's
// validator field does not match the locally computed elected validator
// for the current tip.
var ErrInvalidBlockValidator = errors.New("node: block validator does not match elected validator")
