// Package client is the dashboard's REST client for the task backend's
// /api/v1/tasks endpoints. Calls are never retried; callers decide what a
// failure means.
package client
