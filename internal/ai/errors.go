package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion means the LLM answered 2xx but carried no usable choice.
var ErrEmptyCompletion = errors.New("ai: empty completion")

// ErrUninterpretable means every recovery strategy came up empty.
var ErrUninterpretable = errors.New("ai: response not interpretable")

// TransportError is a non-success HTTP reply from the completion endpoint.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ai: completion request failed: status=%d body=%q", e.StatusCode, e.Body)
}
