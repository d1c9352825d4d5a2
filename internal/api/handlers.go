package api

import (
	"sync"

	"stagehand/pkg/logging"
)

// Handler registry variables store the registered implementations.
// These variables are protected by handlerMutex for thread-safe access.
var (
	consumerHandler ConsumerHandler

	// handlerMutex protects all handler registry operations.
	handlerMutex sync.RWMutex
)

// RegisterConsumer registers the orchestrator as the consumer handler.
//
// Only one consumer handler can be registered at a time; subsequent
// registrations replace the previous handler. Passing nil unregisters it,
// which tests use to restore a clean API layer.
//
// Example:
//
//	adapter := orchestrator.NewAPIAdapter(orch)
//	adapter.Register() // calls api.RegisterConsumer(adapter)
func RegisterConsumer(h ConsumerHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	logging.Debug("API", "Registering consumer handler: %v", h != nil)
	consumerHandler = h
}

// GetConsumer returns the registered consumer handler, or nil if none has
// been registered yet. Callers should always check for nil.
//
// Example:
//
//	consumer := api.GetConsumer()
//	if consumer == nil {
//	    return api.ErrConsumerNotRegistered
//	}
//	client := consumer.GetContext(catalog.Remote)
func GetConsumer() ConsumerHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return consumerHandler
}
