package types

// PubSubType defines the type of pubsub implementation
type PubSubType string

const (
	// MemoryPubSub is an in-process pubsub backed by go channels
	MemoryPubSub PubSubType = "memory"
)
