package milestones

import "context"

// Capability is a host subsystem the notifier needs before it may run.
type Capability interface {
	Name() string
	Available(ctx context.Context) bool
}

// FeatureFlag is a capability switched by configuration.
type FeatureFlag struct {
	Label   string
	Enabled bool
}

func (f FeatureFlag) Name() string                   { return f.Label }
func (f FeatureFlag) Available(context.Context) bool { return f.Enabled }

// StoreProbe is available while Ping succeeds.
type StoreProbe struct {
	Label string
	Ping  func(ctx context.Context) error
}

func (p StoreProbe) Name() string { return p.Label }

func (p StoreProbe) Available(ctx context.Context) bool {
	return p.Ping != nil && p.Ping(ctx) == nil
}
