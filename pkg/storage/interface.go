package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/guidegen/pkg/models"
)

// Record is a stored build entry together with its key parts
type Record struct {
	Variant models.Variant
	Output  string // Output file name, e.g. "routing.html"
	Entry   models.BuildEntry
}

// BuildRecorder persists the outcome of generating a target
type BuildRecorder interface {
	// Record stores the entry for a target, replacing any earlier one
	Record(variant models.Variant, output string, entry *models.BuildEntry) error
}

// BuildLookup reads stored build outcomes
type BuildLookup interface {
	// CheckTarget retrieves the status and entry of a target
	// Returns status (BuildStatusNotFound when never recorded, BuildStatusDBError on failure),
	// the BuildEntry if found and parsed, and any error
	CheckTarget(variant models.Variant, output string) (status models.BuildStatus, entry *models.BuildEntry, err error)

	// List returns every stored record ordered by key (variant, then output name)
	List(ctx context.Context) ([]Record, error)

	// Count returns the number of stored targets
	Count() (int, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// WriteBuildLog writes one tab-separated line per stored target to filePath
	WriteBuildLog(filePath string) error

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// BuildStore combines all store interfaces for components that need full access
type BuildStore interface {
	BuildRecorder
	BuildLookup
	StoreAdmin
}
