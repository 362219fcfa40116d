// Package events provides the dispatch layer between the push channel and the
// components that react to it. Each decoded frame becomes an Event of a given
// Kind, and the emitter hands it to the handlers registered for that kind, so
// every handler can be exercised without a live socket.
package events
