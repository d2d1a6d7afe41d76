package documentcmd

// FeatureGates exposes runtime feature toggles required by document command handlers.
// Callers can supply closures that read from knowledge.Config to keep the handlers
// decoupled from configuration packages while still honouring feature flags.
type FeatureGates struct {
	// SchedulingEnabled should return true when timed publication windows are enabled.
	SchedulingEnabled func() bool
}

func (g FeatureGates) schedulingEnabled() bool {
	if g.SchedulingEnabled == nil {
		return true
	}
	return g.SchedulingEnabled()
}
