package agreement

import "errors"

// ErrInputNotAccepted is returned by SetInput when called after epoch 0 has
// begun, or after an estimate already exists for epoch 0.
var ErrInputNotAccepted = errors.New("agreement: input not accepted")

// ErrTerminated is returned by HandleMessage once the instance has
// terminated; no further messages are processed.
var ErrTerminated = errors.New("agreement: instance terminated")
