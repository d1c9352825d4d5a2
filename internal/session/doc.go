// Package session connects the identity side-channel to the session unit.
//
// The session token lives in a file (JSON or YAML in the oauth2 token
// form). Watcher pushes every valid token it reads to a Setter, normally
// api.NewConsumerAPI(), and signs out when the file is removed:
//
//	w, err := session.NewWatcher(session.WatcherConfig{
//	    TokenFile: cfg.Session.TokenFile,
//	    Setter:    api.NewConsumerAPI(),
//	})
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
package session
