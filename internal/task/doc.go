// Package task holds the dashboard's view of backend tasks: the task model,
// the wire shapes the backend emits for it (push updates and REST records),
// and the in-memory Store that keeps the last-known state per task ID.
//
// The Store never deletes entries. Consumers read it through a view sorted by
// timestamp, newest first, and through Stats, which is recomputed by a full
// scan on every call.
package task
