package milestones

import "errors"

// ErrMissingCapability means a subsystem the notifier depends on is absent.
var ErrMissingCapability = errors.New("missing dependency")
