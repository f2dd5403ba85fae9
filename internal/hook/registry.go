package hook

// Registry bundles the hook and event dispatchers for one crawl.
//
// Design decision: The registry is constructed once at process start and
// passed explicitly into every component that owns or consumes extension
// points. There is no package-level default registry; two crawls in one
// process get two registries and never observe each other's callbacks.
type Registry struct {
	// Hooks holds the single-slot callbacks.
	Hooks *Dispatcher
	// Events holds the multi-listener notifications.
	Events *EventDispatcher
}

// NewRegistry returns a Registry with empty dispatchers.
func NewRegistry() *Registry {
	return &Registry{
		Hooks:  NewDispatcher(),
		Events: NewEventDispatcher(),
	}
}
