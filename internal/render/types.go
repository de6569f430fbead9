package render

const (
	// Resource states
	StateRunning    = "running"
	StateStopped    = "stopped"
	StatePending    = "pending"
	StateStopping   = "stopping"
	StateShutdown   = "shutting-down"
	StateTerminated = "terminated"

	// Display values
	MissingValue = "<none>"
	NAValue      = "n/a"
	UnknownValue = "<unknown>"
)
