// Package web serves a small local HTTP status surface for the dashboard:
// the current task view, stats and push channel state as JSON, plus submit
// and cancel passthroughs to the backend.
package web
