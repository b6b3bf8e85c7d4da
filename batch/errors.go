package batch

import "errors"

// ErrCancelled is returned for any item reached after Exporter.Cancel
// has been called, instead of attempting its decode.
var ErrCancelled = errors.New("batch: export cancelled")
