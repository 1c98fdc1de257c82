package postgresadapter

// StaticToggle implements ports.Toggle from process configuration. The
// value is fixed for the process lifetime; flipping it is a config change
// plus restart, matching how the deployment manages the feature flag.
type StaticToggle struct {
	Enabled bool
}

func (t StaticToggle) StreamEnabled() bool { return t.Enabled }
