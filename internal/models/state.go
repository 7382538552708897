package models

// State: состояние одной попытки загрузки.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateSplitting
	StateUploadingParts
	StateFinalizing
	StateCompleted
	StateErrored
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateInitializing:   "initializing",
	StateSplitting:      "splitting",
	StateUploadingParts: "uploading_parts",
	StateFinalizing:     "finalizing",
	StateCompleted:      "completed",
	StateErrored:        "errored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal сообщает, что из состояния больше нет переходов.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateErrored
}
