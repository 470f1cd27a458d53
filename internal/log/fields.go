package log

// Canonical field names.
const (
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldPhase     = "phase"
	FieldIndex     = "index"
	FieldState     = "state"
	FieldPath      = "path"
	FieldEncoder   = "encoder"
	FieldFPS       = "fps"
	FieldElapsed   = "elapsed"
)
