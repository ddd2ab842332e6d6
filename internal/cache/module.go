package cache

import (
	"github.com/reportik/reportik/internal/logger"
)

// Initialize initializes the cache system
func Initialize(log *logger.Logger) Cache {
	log.Info("Initializing cache system")

	InitializeInMemoryCache()

	log.Info("Cache system initialized")

	return GetInMemoryCache()
}
