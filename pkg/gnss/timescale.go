package gnss

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeScale is a continuous GNSS time scale or civil UTC.
type TimeScale int

// Available time scales.
const (
	TimeScaleUTC TimeScale = iota + 1
	TimeScaleGPST
	TimeScaleGLONASST
	TimeScaleGST
	TimeScaleBDT
	TimeScaleQZSST
	TimeScaleIRNSST
	TimeScaleTAI
)

func (ts TimeScale) String() string {
	return [...]string{"", "UTC", "GPST", "GLONASST", "GST", "BDT", "QZSST", "IRNSST", "TAI"}[ts]
}

// scalePerName maps the textual identifier to its time scale.
var scalePerName = map[string]TimeScale{
	"UTC":      TimeScaleUTC,
	"GPST":     TimeScaleGPST,
	"GLONASST": TimeScaleGLONASST,
	"GST":      TimeScaleGST,
	"BDT":      TimeScaleBDT,
	"QZSST":    TimeScaleQZSST,
	"IRNSST":   TimeScaleIRNSST,
	"TAI":      TimeScaleTAI,
}

// ParseTimeScale returns the time scale for the textual identifier name, e.g. "GPST".
func ParseTimeScale(name string) (TimeScale, error) {
	if ts, ok := scalePerName[name]; ok {
		return ts, nil
	}
	return 0, fmt.Errorf("invalid time scale: %q", name)
}

// scaleOffsets holds per time scale the constant offset the scale runs ahead of UTC:
// the leap seconds accumulated since the scale's reference epoch (state 2017-01-01),
// resp. the 3h zone offset for GLONASS which follows UTC leap seconds.
var scaleOffsets = map[TimeScale]time.Duration{
	TimeScaleUTC:      0,
	TimeScaleGPST:     18 * time.Second,
	TimeScaleGLONASST: 3 * time.Hour,
	TimeScaleGST:      18 * time.Second,
	TimeScaleBDT:      4 * time.Second,
	TimeScaleQZSST:    18 * time.Second,
	TimeScaleIRNSST:   18 * time.Second,
	TimeScaleTAI:      37 * time.Second,
}

// scaleRefEpochs holds per time scale its reference epoch, given as the scale's own
// civil reading. UTC has none.
var scaleRefEpochs = map[TimeScale]time.Time{
	TimeScaleGPST:     time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC),
	TimeScaleGLONASST: time.Date(1982, 10, 12, 0, 0, 0, 0, time.UTC),
	TimeScaleGST:      time.Date(1999, 8, 22, 0, 0, 0, 0, time.UTC),
	TimeScaleBDT:      time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
	TimeScaleQZSST:    time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC),
	TimeScaleIRNSST:   time.Date(1999, 8, 22, 0, 0, 0, 0, time.UTC),
	TimeScaleTAI:      time.Date(1958, 1, 1, 0, 0, 0, 0, time.UTC),
}

// UTCOffset returns the constant offset the time scale runs ahead of UTC.
func (ts TimeScale) UTCOffset() time.Duration {
	return scaleOffsets[ts]
}

// NativeTimeScale returns the time scale the system's signals are referenced to.
// SBAS and mixed-system data default to GPS time.
func (sys System) NativeTimeScale() TimeScale {
	switch sys {
	case SysGLO:
		return TimeScaleGLONASST
	case SysGAL:
		return TimeScaleGST
	case SysQZSS:
		return TimeScaleQZSST
	case SysBDS:
		return TimeScaleBDT
	case SysIRNSS:
		return TimeScaleIRNSST
	}
	return TimeScaleGPST
}

// ReferenceEpoch returns the time scale's reference epoch as the scale's own civil
// reading, or the zero time for UTC.
func (ts TimeScale) ReferenceEpoch() time.Time {
	return scaleRefEpochs[ts]
}

// ErrBeforeReferenceEpoch is returned for times that lie before the time scale's
// reference epoch.
var ErrBeforeReferenceEpoch = errors.New("gnss: time lies before the time scale's reference epoch")

// instantTimeFormat is the civil part layout of an Instant string.
const instantTimeFormat = "2006-01-02T15:04:05.000000000"

// Instant is a point in time tagged with the time scale it was given in.
// The embedded Time is the instant's absolute position on the UTC timeline,
// so instants of different scales compare and subtract directly. The civil
// reading in the instant's own scale is Civil.
type Instant struct {
	time.Time
	Scale TimeScale
}

// Civil returns the instant's civil calendar reading in its own time scale.
func (t Instant) Civil() time.Time {
	return t.Add(t.Scale.UTCOffset())
}

// String returns the civil reading with the scale name appended,
// e.g. "2020-06-17T02:00:18.000000000 GPST".
func (t Instant) String() string {
	return t.Civil().Format(instantTimeFormat) + " " + t.Scale.String()
}

// ParseInstant parses an instant given as civil reading plus time scale name in the
// form "2006-01-02T15:04:05.000000000 GPST". Times before the scale's reference
// epoch are rejected.
func ParseInstant(str string) (Instant, error) {
	fields := strings.Fields(str)
	if len(fields) != 2 {
		return Instant{}, fmt.Errorf("invalid instant: %q", str)
	}
	ts, err := ParseTimeScale(fields[1])
	if err != nil {
		return Instant{}, err
	}
	civil, err := time.Parse(instantTimeFormat, fields[0])
	if err != nil {
		return Instant{}, fmt.Errorf("parse instant %q: %v", str, err)
	}
	if ref := ts.ReferenceEpoch(); !ref.IsZero() && civil.Before(ref) {
		return Instant{}, fmt.Errorf("%w: %q (%s)", ErrBeforeReferenceEpoch, fields[0], ts)
	}
	return Instant{Time: civil.Add(-ts.UTCOffset()), Scale: ts}, nil
}
