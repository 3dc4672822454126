package record

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent is one human-readable status update of a recording
// job, delivered asynchronously to the invoking surface (CLI or TUI).
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}
