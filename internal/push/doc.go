// Package push owns the dashboard's single push-channel connection to the
// backend: dialing, reading frames, classifying them into events, and the
// fixed-delay reconnection policy that runs when the connection drops.
//
// Policy states:
//
//	Connected ──close──▶ Disconnected(n) ──after delay──▶ dial
//	Disconnected(n≥max) ──▶ GivenUp (terminal)
//	any ──Close()──▶ Stopped (terminal)
//
// A successful open always resets the attempt counter to zero.
package push
