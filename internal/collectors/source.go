package collectors

import (
	"context"

	"github.com/bundlescope/bundlescope/internal/models"
)

// ContextSource produces a BundleContext from somewhere: an indexed support
// bundle on disk or a live cluster. Path identifies the source and feeds the
// cache fingerprint, so it must be stable for the same source.
type ContextSource interface {
	Collect(ctx context.Context) (*models.BundleContext, error)
	Path() string
}
