package models

// Stage is a position in the processing sequence. A batch starts in
// StageInitial, moves forward through the loggable stages and ends in
// StageCompleted once a manager signs it off.
type Stage string

const (
	StageInitial         Stage = "Initial"
	StageBoiling         Stage = "Boiling"
	StageCrystallization Stage = "Crystallization"
	StageDrying          Stage = "Drying"
	StagePacking         Stage = "Packing"
	StageCompleted       Stage = "Completed"
)

var stageOrder = []Stage{
	StageInitial,
	StageBoiling,
	StageCrystallization,
	StageDrying,
	StagePacking,
	StageCompleted,
}

// LoggableStages lists the stages a stage log entry may record.
var LoggableStages = []Stage{StageBoiling, StageCrystallization, StageDrying, StagePacking}

// Rank returns the position of s in the sequence, or -1 for unknown values.
func (s Stage) Rank() int {
	for i, candidate := range stageOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Loggable reports whether a stage log entry may carry s.
func (s Stage) Loggable() bool {
	return s.Rank() > StageInitial.Rank() && s.Rank() < StageCompleted.Rank()
}

// CanAppend reports whether a log for next may follow a batch sitting in
// current. Repeating the current stage and skipping ahead are allowed;
// going back and logging after completion are not.
func CanAppend(current, next Stage) bool {
	if !next.Loggable() {
		return false
	}
	rank := current.Rank()
	return rank >= 0 && current != StageCompleted && rank <= next.Rank()
}

// Predecessors lists every current stage from which a log for s may be
// appended. Stores use it to make the ordering check part of the update.
func (s Stage) Predecessors() []Stage {
	if !s.Loggable() {
		return nil
	}
	var out []Stage
	for _, candidate := range stageOrder {
		if CanAppend(candidate, s) {
			out = append(out, candidate)
		}
	}
	return out
}
