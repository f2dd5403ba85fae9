package hook

// Name identifies one extension point in the catalog.
type Name string

// Extension point catalog.
//
// Design decision: The catalog is a closed enumeration checked at
// registration time rather than an open string namespace. A typo in a
// plugin's connect call should fail loudly at startup, not silently
// register a hook nothing ever calls.
const (
	// ResolveHostname lets a callback substitute the hostname before
	// resolution. Hook; args: (host string); returns string.
	ResolveHostname Name = "resolve-hostname"

	// ResolveResult announces a completed fresh resolution.
	// Event; args: (host string, result *dns.Result).
	ResolveResult Name = "resolve-result"

	// GetPriority lets a callback assign a queue priority to a URL.
	// Hook; args: (*model.URLInfo, *model.URLRecord); returns int or nil.
	GetPriority Name = "get-priority"

	// QueuedURL announces a URL added to the frontier.
	// Event; args: (*model.URLRecord).
	QueuedURL Name = "queued-url"

	// DequeuedURL announces a URL checked out of the frontier.
	// Event; args: (*model.URLRecord).
	DequeuedURL Name = "dequeued-url"

	// AcceptURL lets a callback veto a checked-out URL before fetching.
	// Hook; args: (*model.URLInfo, *model.URLRecord); returns bool.
	AcceptURL Name = "accept-url"

	// WaitTime lets a callback override the politeness delay.
	// Hook; args: (time.Duration, *model.URLRecord); returns time.Duration.
	WaitTime Name = "wait-time"

	// HandlePreResponse is consulted when response metadata arrives,
	// before the body is consumed. Hook; args: (*model.URLInfo,
	// *fetch.Response); returns a verdict string.
	HandlePreResponse Name = "handle-pre-response"

	// HandleResponse is consulted after a completed fetch.
	// Hook; args: (*model.URLInfo, *fetch.Response); returns a verdict
	// string.
	HandleResponse Name = "handle-response"

	// HandleError is consulted after a failed fetch.
	// Hook; args: (*model.URLInfo, error); returns a verdict string.
	HandleError Name = "handle-error"

	// GetURLs invites listeners to inject URLs after an item completes.
	// Event; args: (*model.URLInfo, injector func).
	GetURLs Name = "get-urls"

	// FinishingStatistics announces end-of-crawl statistics.
	// Event; args: (*stats.Snapshot).
	FinishingStatistics Name = "finishing-statistics"

	// ExitStatus gives a callback final say over the process exit code.
	// Hook; args: (int); returns int.
	ExitStatus Name = "exit-status"

	// PipelineBegin announces that a pipeline is about to run.
	// Event; args: (name string).
	PipelineBegin Name = "pipeline-begin"

	// PipelineEnd announces that a pipeline completed cleanly.
	// Event; args: (name string).
	PipelineEnd Name = "pipeline-end"
)

// Kind distinguishes single-slot hooks from multi-listener events.
type Kind int

const (
	// KindHook marks a single-slot callback name.
	KindHook Kind = iota + 1

	// KindEvent marks a multi-listener notification name.
	KindEvent
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindHook:
		return "hook"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// catalog maps every valid name to its kind. Registration rejects names
// outside this map.
var catalog = map[Name]Kind{
	ResolveHostname:     KindHook,
	ResolveResult:       KindEvent,
	GetPriority:         KindHook,
	QueuedURL:           KindEvent,
	DequeuedURL:         KindEvent,
	AcceptURL:           KindHook,
	WaitTime:            KindHook,
	HandlePreResponse:   KindHook,
	HandleResponse:      KindHook,
	HandleError:         KindHook,
	GetURLs:             KindEvent,
	FinishingStatistics: KindEvent,
	ExitStatus:          KindHook,
	PipelineBegin:       KindEvent,
	PipelineEnd:         KindEvent,
}

// KindOf returns the catalog kind for name, and whether name is in the
// catalog at all.
func KindOf(name Name) (Kind, bool) {
	k, ok := catalog[name]
	return k, ok
}
