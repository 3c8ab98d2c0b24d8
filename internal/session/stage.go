package session

// Stage is the position of a user in the checkout conversation.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageFirstName    Stage = "first_name"
	StageLastName     Stage = "last_name"
	StageCity         Stage = "city"
	StageState        Stage = "state"
	StageZip          Stage = "zip"
	StageStreet       Stage = "street"
	StageReturnNumber Stage = "return_number"
)

var nextStage = map[Stage]Stage{
	StageFirstName:    StageLastName,
	StageLastName:     StageCity,
	StageCity:         StageState,
	StageState:        StageZip,
	StageZip:          StageStreet,
	StageStreet:       StageReturnNumber,
	StageReturnNumber: StageIdle,
}

// Collecting reports whether text input is being consumed for the address.
func (s Stage) Collecting() bool {
	_, ok := nextStage[s]
	return ok
}

// Next returns the stage that follows s. The last address stage returns
// StageIdle.
func (s Stage) Next() Stage {
	if next, ok := nextStage[s]; ok {
		return next
	}
	return StageIdle
}

// Terminal reports whether the stage completes the order.
func (s Stage) Terminal() bool {
	return s == StageReturnNumber
}
