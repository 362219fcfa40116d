// Package mocks provides shared test doubles for the dashboard's interfaces.
//
// Usage:
//
//	import "github.com/phrazzld/taskdash/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    presenter := mocks.NewRecordingPresenter()
//	    reconciler := reconcile.New(store, presenter, 20, logger)
//
//	    // Drive the reconciler, then inspect presenter.Lists(), presenter.Logs()...
//	}
//
// Fakes for the push channel's socket live next to the push package's tests,
// since this package is imported by them.
package mocks
