// Package dashboard wires the dashboard together. A Controller owns the task
// store, the push connection, the reconciler and the poller; nothing lives in
// package-level state, so several controllers can coexist in one process.
package dashboard
