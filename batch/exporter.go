// Package batch implements the only parallelism the core condones: a
// fixed worker pool that exports descriptors to JSON, each worker owning
// its own catalog reader, decode buffer, and JSON writer so no state is
// shared across goroutines except the read-only type registry and a
// cooperative cancellation flag.
package batch

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kfcio/kfc/catalog"
	"github.com/kfcio/kfc/codec"
	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/internal/klog"
	"github.com/kfcio/kfc/reflection"
)

// Result is one descriptor's export outcome: either JSON bytes or an
// error, never both.
type Result struct {
	ID   guid.DescriptorID
	JSON []byte
	Err  error
}

// Exporter runs a fixed-size worker pool over a list of descriptor ids,
// decoding each through the shared type registry and re-encoding it as
// JSON via codec.MarshalDescriptorRoot.
type Exporter struct {
	catalogPath string
	registry    *reflection.TypeRegistry
	workers     int
	logger      *klog.Helper
	opts        codec.ConversionOptions

	cancelled atomic.Bool
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithWorkers overrides the worker count (default runtime.GOMAXPROCS(0)).
func WithWorkers(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger overrides the Exporter's progress logger (default: no-op).
func WithLogger(logger *klog.Helper) Option {
	return func(e *Exporter) { e.logger = logger }
}

// WithConversionOptions overrides the codec options used for every
// decode/encode (default: zero value).
func WithConversionOptions(opts codec.ConversionOptions) Option {
	return func(e *Exporter) { e.opts = opts }
}

// NewExporter builds an Exporter over the catalog at catalogPath, shared
// read-only across every worker via registry.
func NewExporter(catalogPath string, registry *reflection.TypeRegistry, opts ...Option) *Exporter {
	e := &Exporter{
		catalogPath: catalogPath,
		registry:    registry,
		workers:     runtime.GOMAXPROCS(0),
		logger:      klog.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cancel sets the shared cooperative cancellation flag: every worker
// checks it between items and stops picking up new work, but does not
// interrupt an item already in flight.
func (e *Exporter) Cancel() { e.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (e *Exporter) Cancelled() bool { return e.cancelled.Load() }

// ExportAll exports every id in ids, in unspecified order, using
// e.workers goroutines each holding their own catalog.Reader. Results are
// returned in the same order as ids; an id reached after cancellation
// carries ErrCancelled instead of a decode attempt.
func (e *Exporter) ExportAll(ids []guid.DescriptorID) ([]Result, error) {
	results := make([]Result, len(ids))

	type job struct {
		index int
		id    guid.DescriptorID
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	wg.Add(e.workers)
	for w := 0; w < e.workers; w++ {
		go func(workerIndex int) {
			defer wg.Done()
			reader, err := catalog.Open(e.catalogPath)
			if err != nil {
				e.logger.Errorf("batch: worker %d failed to open catalog: %v", workerIndex, err)
				for j := range jobs {
					results[j.index] = Result{ID: j.id, Err: err}
				}
				return
			}
			defer reader.Close()

			for j := range jobs {
				if e.Cancelled() {
					results[j.index] = Result{ID: j.id, Err: ErrCancelled}
					continue
				}
				results[j.index] = e.exportOne(reader, j.id)
			}
		}(w)
	}

	for i, id := range ids {
		jobs <- job{index: i, id: id}
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// exportOne decodes id's descriptor bytes against the type the id's
// TypeHash resolves to in the shared registry, then marshals the result
// as a JSON descriptor root.
func (e *Exporter) exportOne(reader *catalog.Reader, id guid.DescriptorID) Result {
	raw, err := reader.ReadDescriptor(id)
	if err != nil {
		e.logger.Warnf("batch: read descriptor %s: %v", id, err)
		return Result{ID: id, Err: err}
	}

	typeIdx, err := e.registry.ByQualifiedHash(id.TypeHash)
	if err != nil {
		return Result{ID: id, Err: fmt.Errorf("batch: resolve type for %s: %w", id, err)}
	}

	value, err := codec.Decode(e.registry, typeIdx.Index, raw, e.opts)
	if err != nil {
		return Result{ID: id, Err: fmt.Errorf("batch: decode %s: %w", id, err)}
	}

	out, err := codec.MarshalDescriptorRoot(e.registry, typeIdx.Index, id.Data, id.Part, value, e.opts)
	if err != nil {
		return Result{ID: id, Err: fmt.Errorf("batch: marshal %s: %w", id, err)}
	}

	e.logger.Debugf("batch: exported %s (%d bytes)", id, len(out))
	return Result{ID: id, JSON: out}
}
