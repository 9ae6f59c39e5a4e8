package rinex

import (
	"fmt"
	"strconv"
	"strings"
)

// EpochFlag is the event status of an observation epoch.
type EpochFlag int8

// The epoch flags defined for observation records. The zero value is OK,
// so an absent flag defaults to OK.
const (
	EpochFlagOK EpochFlag = iota
	EpochFlagPowerFailure
	EpochFlagMovingAntenna
	EpochFlagNewSite
	EpochFlagHeaderInfo
	EpochFlagExternalEvent
	EpochFlagCycleSlip
)

// parseEpochFlag decodes an epoch flag given as the literal integer 0-6.
func parseEpochFlag(s string) (EpochFlag, error) {
	f, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || f < 0 || f > 6 {
		return 0, fmt.Errorf("%w: %q", ErrEpochFlag, s)
	}
	return EpochFlag(f), nil
}

// String returns the numeric token used in RINEX files.
func (f EpochFlag) String() string {
	return strconv.Itoa(int(f))
}

// Name returns the name of the event the flag stands for.
func (f EpochFlag) Name() string {
	return [...]string{"ok", "power failure", "antenna being moved", "new site occupation",
		"header information follows", "external event", "cycle slip"}[f]
}
