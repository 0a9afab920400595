package port

import "errors"

// ErrOptimisticLock is returned by repositories when a versioned update
// matched zero rows: another writer got there first.
var ErrOptimisticLock = errors.New("optimistic lock conflict")
