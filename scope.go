package sdkcommon

// Scope is the lifecycle policy governing how a service is resolved
type Scope int

const (
	// Automatic returns the cached instance if present, otherwise builds one
	Automatic Scope = iota
	// Singleton builds at registration and always returns that instance
	Singleton
	// NewInstance invokes the factory on every resolution and caches the result
	NewInstance
)

func (s Scope) String() string {
	switch s {
	case Automatic:
		return "automatic"
	case Singleton:
		return "singleton"
	case NewInstance:
		return "new-instance"
	default:
		return "unknown"
	}
}
