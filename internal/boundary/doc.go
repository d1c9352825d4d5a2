// Package boundary is the user-facing error boundary of stagehand.
//
// It watches the global state published by the orchestrator through the
// consumer API. While startup is running it shows a loading indicator; once
// every eager unit is ready it prints the unit status table; when startup
// fails it names the failed subsystem, prints the table and offers three
// actions:
//
//   - retry: re-run initialization of every failed unit and resume startup
//   - reload: restart the whole process
//   - quit: leave the boundary
//
// The boundary holds no state machine of its own. Everything it shows is read
// from api.Snapshot, and the retry and reload actions are injected.
package boundary
