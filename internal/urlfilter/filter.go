package urlfilter

import (
	"github.com/skitterhq/skitter/internal/model"
)

// Filter is a predicate over a discovered URL. Test receives both the
// parsed URL and its frontier record so filters can judge by structure
// (scheme, host) or by crawl state (depth, link type).
type Filter interface {
	// Name identifies the filter in logs.
	Name() string

	// Test reports whether the URL passes.
	Test(info *model.URLInfo, record *model.URLRecord) bool
}
