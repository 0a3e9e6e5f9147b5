package scanner

// State is one of the scanner orchestrator's six states (spec §4.9).
type State string

const (
	StateIdle     State = "idle"
	StateArming   State = "arming"
	StateScanning State = "scanning"
	StateCooldown State = "cooldown"
	StatePaused   State = "paused"
	StateFaulted  State = "faulted"
)
