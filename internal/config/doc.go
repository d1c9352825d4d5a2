// Package config loads the stagehand configuration.
//
// Configuration lives in a single directory (default ~/.config/stagehand)
// containing config.yaml. Every field has a default, so a missing file is
// not an error:
//
//	startup:
//	  parallel: false        # start independent eager units concurrently
//	  maxConcurrency: 4
//	  orderPolicy: strict    # or reorder
//	  hintOrder: [remote, devices, alarms, endpoints]
//	units:
//	  files:
//	    mode: eager          # per-unit mode override
//	remote:
//	  baseURL: http://localhost:8080/api
//	  timeout: 10s
//	  pingOnInit: false
//	session:
//	  tokenFile: token.json  # relative to the config directory
//	  watch: true
//	logging:
//	  level: info
//
// Validate reports every problem at once as a ConfigurationErrorCollection.
package config
