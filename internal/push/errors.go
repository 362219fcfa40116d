package push

import "errors"

var (
	// ErrMalformedFrame is reported when a frame is not JSON or lacks the
	// fields of any known message shape. Such frames are dropped.
	ErrMalformedFrame = errors.New("malformed push frame")

	// ErrTransport wraps channel-level failures. Recovery is driven by the
	// close that follows, never by the error itself.
	ErrTransport = errors.New("push transport error")

	// ErrConnectionLost marks a connection that ended without Close.
	ErrConnectionLost = errors.New("push connection lost")

	// ErrReconnectExhausted is logged once the attempt budget is spent.
	ErrReconnectExhausted = errors.New("push reconnect attempts exhausted")

	// ErrManagerClosed is returned by Connect after Close.
	ErrManagerClosed = errors.New("push manager closed")
)
