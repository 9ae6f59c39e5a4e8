package rinex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gnsskit/gnsskit/pkg/gnss"
)

// RecordType specifies the kind of data records a RINEX file carries. It selects
// the layout of the epoch timestamps in the file's body.
type RecordType int

// The RINEX record types.
const (
	RecordTypeObs RecordType = iota + 1
	RecordTypeNav
	RecordTypeMeteo
	RecordTypeClock
	RecordTypeIono
	RecordTypeAntenna
)

func (typ RecordType) String() string {
	return [...]string{"", "observation data", "navigation data", "meteorological data",
		"clock data", "ionosphere maps", "antenna data"}[typ]
}

// Abbr returns the one-char file type used in the RINEX VERSION / TYPE header record.
func (typ RecordType) Abbr() string {
	return [...]string{"", "O", "N", "M", "C", "I", "A"}[typ]
}

// recordTypePerAbbr maps the RINEX file type abbreviation to its record type.
var recordTypePerAbbr = map[string]RecordType{
	"O": RecordTypeObs,
	"N": RecordTypeNav,
	"M": RecordTypeMeteo,
	"C": RecordTypeClock,
	"I": RecordTypeIono,
	"A": RecordTypeAntenna,
}

// ParseRecordType returns the record type for a RINEX file type abbreviation, e.g. "O".
func ParseRecordType(abbr string) (RecordType, error) {
	if typ, ok := recordTypePerAbbr[abbr]; ok {
		return typ, nil
	}
	return 0, fmt.Errorf("invalid RINEX file type: %q", abbr)
}

// Epoch parsing errors. Parse errors carry the offending token, one error per
// timestamp field, so malformed files can be diagnosed by column.
var (
	ErrEpochFormat      = errors.New("RINEX: unrecognized epoch format")
	ErrEpochYear        = errors.New("RINEX: parse epoch year")
	ErrEpochMonth       = errors.New("RINEX: parse epoch month")
	ErrEpochDay         = errors.New("RINEX: parse epoch day")
	ErrEpochHours       = errors.New("RINEX: parse epoch hours")
	ErrEpochMinutes     = errors.New("RINEX: parse epoch minutes")
	ErrEpochSeconds     = errors.New("RINEX: parse epoch seconds")
	ErrEpochNanoseconds = errors.New("RINEX: parse epoch nanoseconds")
	ErrEpochFlag        = errors.New("RINEX: invalid epoch flag")
	ErrEpochScale       = errors.New("RINEX: epoch not constructible in time scale")
)

// ParseEpoch parses the timestamp field of a RINEX record as civil UTC.
// See ParseEpochInTimeScale.
func ParseEpoch(str string) (gnss.Instant, EpochFlag, error) {
	return ParseEpochInTimeScale(str, gnss.TimeScaleUTC)
}

// ParseEpochInTimeScale parses the timestamp field of a RINEX record, interpreted
// as a civil reading in the given time scale. The fields are whitespace separated
// in the order year, month, day, hour, minute, seconds and an optional epoch flag;
// anything beyond is ignored. A two-digit year yy is disambiguated to 20yy below
// 80 and to 19yy from 80 on. The seconds field may carry a fractional part whose
// resolution follows the field width used in the file: in fields shorter than 7
// chars the fraction counts 100 millisecond units (navigation records), in wider
// fields 100 nanosecond units (observation records). A missing flag defaults to
// EpochFlagOK.
func ParseEpochInTimeScale(str string, ts gnss.TimeScale) (gnss.Instant, EpochFlag, error) {
	var (
		y, mon, day, hour, min, sec int
		nanos                       int
		flag                        EpochFlag
	)

	for i, field := range strings.Fields(str) {
		switch i {
		case 0:
			v, err := strconv.Atoi(field)
			if err != nil {
				return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochYear, field)
			}
			y = v
		case 1:
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochMonth, field)
			}
			mon = int(v)
		case 2:
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochDay, field)
			}
			day = int(v)
		case 3:
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochHours, field)
			}
			hour = int(v)
		case 4:
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochMinutes, field)
			}
			min = int(v)
		case 5:
			secTok, nanoTok, hasFrac := strings.Cut(field, ".")
			v, err := strconv.ParseUint(secTok, 10, 8)
			if err != nil {
				return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochSeconds, field)
			}
			sec = int(v)
			if hasFrac {
				n, err := strconv.ParseUint(nanoTok, 10, 32)
				if err != nil {
					return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochNanoseconds, field)
				}
				if len(field) < 7 { // navigation records: 100 ms units
					nanos = int(n) * 100_000_000
				} else { // observation records: 100 ns units
					nanos = int(n) * 100
				}
			}
		case 6:
			f, err := parseEpochFlag(field)
			if err != nil {
				return gnss.Instant{}, flag, err
			}
			flag = f
		}
	}

	// Year and month both zero means there was nothing meaningful to parse at
	// all. Refuse construction from all-zero components.
	if y == 0 && mon == 0 {
		return gnss.Instant{}, flag, fmt.Errorf("%w: %q", ErrEpochFormat, str)
	}

	if y < 100 { // two-digit year
		if y < 80 {
			y += 2000
		} else {
			y += 1900
		}
	}

	if ts == gnss.TimeScaleUTC {
		t := time.Date(y, time.Month(mon), day, hour, min, sec, nanos, time.UTC)
		return gnss.Instant{Time: t, Scale: ts}, flag, nil
	}

	// Non-UTC scales are defined by their own reference epoch, so the civil
	// reading goes through the scale's own constructor.
	epo, err := gnss.ParseInstant(fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%09d %s",
		y, mon, day, hour, min, sec, nanos, ts))
	if err != nil {
		return gnss.Instant{}, flag, fmt.Errorf("%w: %v", ErrEpochScale, err)
	}
	return epo, flag, nil
}

// FormatEpoch formats the instant as the timestamp field of a RINEX record with
// the layout selected by record type and format version. The civil reading is
// taken in the instant's own time scale. The flag is emitted for observation
// data only; the zero flag is OK. Record types without a layout of their own
// are written in the generic whole-second layout.
func FormatEpoch(epo gnss.Instant, flag EpochFlag, typ RecordType, version uint8) string {
	civil := epo.Civil()
	y, m, d := civil.Date()
	hour, min, sec := civil.Clock()
	mon := int(m)
	nanos := civil.Nanosecond()

	switch typ {
	case RecordTypeObs:
		if version < 3 {
			return fmt.Sprintf("%02d %2d %2d %2d %2d %2d.%07d  %s",
				twoDigitYear(y), mon, d, hour, min, sec, nanos/100, flag)
		}
		return fmt.Sprintf("%04d %02d %02d %02d %02d %2d.%07d  %s",
			y, mon, d, hour, min, sec, nanos/100, flag)
	case RecordTypeNav:
		if version < 3 {
			return fmt.Sprintf("%02d %2d %2d %2d %2d %2d.%d",
				twoDigitYear(y), mon, d, hour, min, sec, nanos/100_000_000)
		}
		return fmt.Sprintf("%04d %02d %02d %02d %02d %02d", y, mon, d, hour, min, sec)
	case RecordTypeIono:
		return fmt.Sprintf("%04d   %2d    %2d    %2d    %2d    %2d", y, mon, d, hour, min, sec)
	default:
		if version < 3 {
			return fmt.Sprintf("%02d %2d %2d %2d %2d %2d", twoDigitYear(y), mon, d, hour, min, sec)
		}
		return fmt.Sprintf("%04d %02d %02d %02d %02d %02d", y, mon, d, hour, min, sec)
	}
}

// twoDigitYear maps a year to the two-digit convention of RINEX versions before 3.
// Years before 2000 land back in 80-99, which makes e.g. 1995 and 2095 ambiguous;
// an inherent limitation of the old format.
func twoDigitYear(y int) int {
	y -= 2000
	if y < 0 {
		y += 100
	}
	return y
}

// nowFunc is the wall clock read used by Now.
var nowFunc = time.Now

// Now returns the current time as a UTC instant. A failing clock read, i.e. a
// zero time, is substituted by the fixed fallback 2000-01-01T00:00:00 UTC, so
// Now never fails.
func Now() gnss.Instant {
	t := nowFunc()
	if t.IsZero() {
		t = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return gnss.Instant{Time: t.UTC(), Scale: gnss.TimeScaleUTC}
}
