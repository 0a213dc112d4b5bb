package testutil

import (
	"github.com/einvoicehub/einvoicehub/internal/repository/inmemory"
)

// The test suites run against the same in-memory repositories the server
// wires by default, so claim atomicity and compare-and-swap conflicts behave
// identically in tests and in a running process.

type InMemorySequenceStore = inmemory.SequenceRepository

type InMemoryProviderConfigStore = inmemory.ProviderConfigRepository

type InMemorySyncQueueStore = inmemory.SyncQueueRepository

// NewInMemorySequenceStore creates a new in-memory sequence store
func NewInMemorySequenceStore() *InMemorySequenceStore {
	return inmemory.NewSequenceRepository()
}

// NewInMemoryProviderConfigStore creates a new in-memory provider config store
func NewInMemoryProviderConfigStore() *InMemoryProviderConfigStore {
	return inmemory.NewProviderConfigRepository()
}

// NewInMemorySyncQueueStore creates a new in-memory sync queue store
func NewInMemorySyncQueueStore() *InMemorySyncQueueStore {
	return inmemory.NewSyncQueueRepository()
}
