package catalog

// ProgressCode is the stage of the command currently executed by the unit.
type ProgressCode uint8

const (
	ProgressOK ProgressCode = iota
	EngagingIdler
	DisengagingIdler
	UnloadingToFinda
	UnloadingToPulley
	FeedingToFinda
	FeedingToExtruder
	FeedingToNozzle
	AvoidingGrind
	FinishingMoves
	ERRDisengagingIdler
	ERREngagingIdler
	ERRWaitingForUser
	ERRInternal
	ERRHelpingFilament
	ERRTMCFailed
	UnloadingFilament
	LoadingFilament
	SelectingFilamentSlot
	PreparingBlade
	PushingFilament
	PerformingCut
	ReturningSelector
	ParkingSelector
	EjectingFilament
	RetractingFromFinda
	Homing
	MovingSelector
	FeedingToFSensor

	ProgressEmpty ProgressCode = 0xff
)

var progressTexts = [...]string{
	ProgressOK:            "OK",
	EngagingIdler:         "Engaging idler",
	DisengagingIdler:      "Disengaging idler",
	UnloadingToFinda:      "Unloading to FINDA",
	UnloadingToPulley:     "Unloading to pulley",
	FeedingToFinda:        "Feeding to FINDA",
	FeedingToExtruder:     "Feeding to extruder",
	FeedingToNozzle:       "Feeding to nozzle",
	AvoidingGrind:         "Avoiding grind",
	FinishingMoves:        "Finishing moves",
	ERRDisengagingIdler:   "ERR Disengaging idler",
	ERREngagingIdler:      "ERR Engaging idler",
	ERRWaitingForUser:     "ERR Wait for User",
	ERRInternal:           "ERR Internal",
	ERRHelpingFilament:    "ERR Help filament",
	ERRTMCFailed:          "ERR TMC failed",
	UnloadingFilament:     "Unloading filament",
	LoadingFilament:       "Loading filament",
	SelectingFilamentSlot: "Selecting fil. slot",
	PreparingBlade:        "Preparing blade",
	PushingFilament:       "Pushing filament",
	PerformingCut:         "Performing cut",
	ReturningSelector:     "Returning selector",
	ParkingSelector:       "Parking selector",
	EjectingFilament:      "Ejecting filament",
	RetractingFromFinda:   "Retract from FINDA",
	Homing:                "Homing",
	MovingSelector:        "Moving selector",
	FeedingToFSensor:      "Feeding to FSensor",
}

// ProgressCodeToText returns the status line for pc. Unknown codes read as
// "OK".
func ProgressCodeToText(pc ProgressCode) string {
	if int(pc) >= len(progressTexts) {
		return progressTexts[ProgressOK]
	}
	return progressTexts[pc]
}

func (pc ProgressCode) String() string {
	return ProgressCodeToText(pc)
}
