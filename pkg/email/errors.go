package email

import "errors"

var (
	ErrDisabled       = errors.New("email: disabled")
	ErrInvalidMessage = errors.New("email: invalid message")
	ErrSend           = errors.New("email: smtp delivery failed")
)
