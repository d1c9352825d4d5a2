// Package catalog declares the units of the stagehand application.
//
// The id set is closed: All lists every unit and the registry built by
// NewRegistry rejects anything else.
//
//	id         mode   dependencies
//	session    lazy   -
//	remote     eager  -
//	devices    eager  remote
//	alarms     eager  remote, devices
//	endpoints  eager  remote
//	files      lazy   remote, session
//
// The session unit holds an *oauth2.Token. Its factory reads the configured
// token file; the session watcher replaces the value whenever the file
// changes. The files unit authenticates against the remote API with the
// current token, so it keeps working across refreshes, and is reset on
// sign-out.
package catalog
