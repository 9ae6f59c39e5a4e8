package rinex

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gnsskit/gnsskit/pkg/gnss"
)

// abbrPerTimeScale is the inverse of timeScalePerAbbr, for writing the
// TIME OF FIRST/LAST OBS header records.
var abbrPerTimeScale = map[gnss.TimeScale]string{
	gnss.TimeScaleUTC:      "UTC",
	gnss.TimeScaleGPST:     "GPS",
	gnss.TimeScaleGLONASST: "GLO",
	gnss.TimeScaleGST:      "GAL",
	gnss.TimeScaleBDT:      "BDT",
	gnss.TimeScaleQZSST:    "QZS",
	gnss.TimeScaleIRNSST:   "IRN",
}

// ObsWriter writes RINEX observation files. The header is validated and written
// by NewObsWriter, the epochs by WriteEpoch. The RINEX version of the output is
// taken from the header.
type ObsWriter struct {
	Header ObsHeader
	w      *bufio.Writer
}

// NewObsWriter creates a new writer for RINEX observation data and writes the
// header block. The header must at least carry format version and type, the
// satellite system, the marker name and the observation types.
//
// It is the caller's responsibility to call Flush when done!
func NewObsWriter(w io.Writer, hdr ObsHeader) (*ObsWriter, error) {
	if err := hdr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid obs header: %v", err)
	}
	wr := &ObsWriter{Header: hdr, w: bufio.NewWriter(w)}
	if err := wr.writeHeader(); err != nil {
		return nil, err
	}
	return wr, nil
}

// Flush writes any buffered records to the underlying io.Writer.
func (wr *ObsWriter) Flush() error {
	return wr.w.Flush()
}

// writeHeaderLine writes one header line with the value in the first 60 columns
// and the label from column 61 on.
func (wr *ObsWriter) writeHeaderLine(val, label string) {
	fmt.Fprintf(wr.w, "%-60.60s%s\n", val, label)
}

// writeHeader writes the RINEX Observation header block. Optional records are
// written only if the corresponding header field is set.
func (wr *ObsWriter) writeHeader() error {
	hdr := &wr.Header

	wr.writeHeaderLine(fmt.Sprintf("%9.2f%11s%-20s%-20s", hdr.RINEXVersion, "", "OBSERVATION DATA", hdr.SatSystem.Abbr()), "RINEX VERSION / TYPE")

	date := hdr.Date
	if date.IsZero() {
		date = Now().Time
	}
	wr.writeHeaderLine(fmt.Sprintf("%-20.20s%-20.20s%-20.20s", hdr.Pgm, hdr.RunBy, date.UTC().Format(headerDateWithZoneFormat)), "PGM / RUN BY / DATE")

	for _, comment := range hdr.Comments {
		wr.writeHeaderLine(comment, "COMMENT")
	}

	wr.writeHeaderLine(hdr.MarkerName, "MARKER NAME")
	if hdr.MarkerNumber != "" {
		wr.writeHeaderLine(hdr.MarkerNumber, "MARKER NUMBER")
	}
	if hdr.MarkerType != "" {
		wr.writeHeaderLine(fmt.Sprintf("%-20.20s", hdr.MarkerType), "MARKER TYPE")
	}

	wr.writeHeaderLine(fmt.Sprintf("%-20.20s%-40.40s", hdr.Observer, hdr.Agency), "OBSERVER / AGENCY")
	wr.writeHeaderLine(fmt.Sprintf("%-20.20s%-20.20s%-20.20s", hdr.ReceiverNumber, hdr.ReceiverType, hdr.ReceiverVersion), "REC # / TYPE / VERS")
	wr.writeHeaderLine(fmt.Sprintf("%-20.20s%-20.20s", hdr.AntennaNumber, hdr.AntennaType), "ANT # / TYPE")
	wr.writeHeaderLine(fmt.Sprintf("%14.4f%14.4f%14.4f", hdr.Position.X, hdr.Position.Y, hdr.Position.Z), "APPROX POSITION XYZ")
	wr.writeHeaderLine(fmt.Sprintf("%14.4f%14.4f%14.4f", hdr.AntennaDelta.Up, hdr.AntennaDelta.E, hdr.AntennaDelta.N), "ANTENNA: DELTA H/E/N")

	wr.writeObsTypes()

	if hdr.Interval > 0 {
		wr.writeHeaderLine(fmt.Sprintf("%10.3f", hdr.Interval), "INTERVAL")
	}
	if !hdr.TimeOfFirstObs.IsZero() {
		wr.writeHeaderLine(formatHeaderTime(hdr.TimeOfFirstObs), "TIME OF FIRST OBS")
	}
	if !hdr.TimeOfLastObs.IsZero() {
		wr.writeHeaderLine(formatHeaderTime(hdr.TimeOfLastObs), "TIME OF LAST OBS")
	}
	if hdr.SignalStrengthUnit != "" {
		wr.writeHeaderLine(fmt.Sprintf("%-20.20s", hdr.SignalStrengthUnit), "SIGNAL STRENGTH UNIT")
	}

	wr.writeGloSlots()

	if hdr.LeapSeconds != 0 {
		wr.writeHeaderLine(fmt.Sprintf("%6d", hdr.LeapSeconds), "LEAP SECONDS")
	}
	if hdr.NSatellites > 0 {
		wr.writeHeaderLine(fmt.Sprintf("%6d", hdr.NSatellites), "# OF SATELLITES")
	}
	if hdr.DOI != "" {
		wr.writeHeaderLine(hdr.DOI, "DOI")
	}
	if hdr.License != "" {
		wr.writeHeaderLine(hdr.License, "LICENSE OF USE")
	}
	for _, info := range hdr.StationInfos {
		wr.writeHeaderLine(info, "STATION INFOS")
	}

	wr.writeHeaderLine("", "END OF HEADER")
	return wr.w.Flush()
}

// writeObsTypes writes the observation types, as SYS / # / OBS TYPES records
// for RINEX-3 and as a # / TYPES OF OBSERV record for RINEX-2.
func (wr *ObsWriter) writeObsTypes() {
	hdr := &wr.Header

	if hdr.RINEXVersion < 3 {
		types := hdr.ObsTypes[hdr.SatSystem]
		var sb strings.Builder
		fmt.Fprintf(&sb, "%6d", len(types))
		for i, typ := range types {
			if i > 0 && i%9 == 0 {
				wr.writeHeaderLine(sb.String(), "# / TYPES OF OBSERV")
				sb.Reset()
				sb.WriteString("      ")
			}
			fmt.Fprintf(&sb, "%6s", typ)
		}
		wr.writeHeaderLine(sb.String(), "# / TYPES OF OBSERV")
		return
	}

	systems := hdr.SatSystems()
	sort.Slice(systems, func(i, j int) bool { return systems[i] < systems[j] })
	for _, sys := range systems {
		types := hdr.ObsTypes[sys]
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s  %3d", sys.Abbr(), len(types))
		for i, typ := range types {
			if i > 0 && i%13 == 0 {
				wr.writeHeaderLine(sb.String(), "SYS / # / OBS TYPES")
				sb.Reset()
				sb.WriteString("      ")
			}
			fmt.Fprintf(&sb, " %3s", typ)
		}
		wr.writeHeaderLine(sb.String(), "SYS / # / OBS TYPES")
	}
}

// writeGloSlots writes the GLONASS SLOT / FRQ # records, eight slots per line.
func (wr *ObsWriter) writeGloSlots() {
	slots := wr.Header.GloSlots
	if len(slots) == 0 {
		return
	}
	prns := make([]gnss.PRN, 0, len(slots))
	for prn := range slots {
		prns = append(prns, prn)
	}
	sort.Slice(prns, func(i, j int) bool { return prns[i].Num < prns[j].Num })

	var sb strings.Builder
	fmt.Fprintf(&sb, "%3d", len(prns))
	for i, prn := range prns {
		if i > 0 && i%8 == 0 {
			wr.writeHeaderLine(sb.String(), "GLONASS SLOT / FRQ #")
			sb.Reset()
			sb.WriteString("   ")
		}
		fmt.Fprintf(&sb, " %3s %2d", prn, slots[prn])
	}
	wr.writeHeaderLine(sb.String(), "GLONASS SLOT / FRQ #")
}

// formatHeaderTime formats an instant as a TIME OF FIRST/LAST OBS header value,
// with the time system abbreviation in columns 49-51.
func formatHeaderTime(t gnss.Instant) string {
	civil := t.Civil()
	y, m, d := civil.Date()
	hour, min, sec := civil.Clock()
	secf := float64(sec) + float64(civil.Nanosecond())/1e9
	return fmt.Sprintf("%6d%6d%6d%6d%6d%13.7f%5s%-3s", y, int(m), d, hour, min, secf, "", abbrPerTimeScale[t.Scale])
}

// WriteEpoch writes the epoch with its observation records. The epoch's NumSat
// must agree with the length of its ObsList. Event epochs carrying special
// records cannot be written.
func (wr *ObsWriter) WriteEpoch(epo *Epoch) error {
	if epo.Flag >= EpochFlagNewSite {
		return fmt.Errorf("cannot write event epoch (flag %d)", epo.Flag)
	}
	if wr.Header.RINEXVersion < 3 {
		return wr.writeEpochv2(epo)
	}
	return wr.writeEpoch(epo)
}

// Write a RINEX version 3 epoch.
func (wr *ObsWriter) writeEpoch(epo *Epoch) error {
	if _, err := fmt.Fprintf(wr.w, "> %s%3d\n", FormatEpoch(epo.Time, epo.Flag, RecordTypeObs, 3), epo.NumSat); err != nil {
		return err
	}

	for _, satObs := range epo.ObsList {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%3s", satObs.Prn)
		for _, typ := range wr.Header.ObsTypes[satObs.Prn.Sys] {
			sb.WriteString(formatObs(satObs.Obss[typ]))
		}
		if _, err := fmt.Fprintln(wr.w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// Write a RINEX version 2 epoch.
func (wr *ObsWriter) writeEpochv2(epo *Epoch) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, " %s%3d", FormatEpoch(epo.Time, epo.Flag, RecordTypeObs, 2), epo.NumSat)
	for i, satObs := range epo.ObsList {
		if i > 0 && i%12 == 0 { // list of PRNs continues in the next line
			sb.WriteString("\n" + strings.Repeat(" ", 32))
		}
		fmt.Fprintf(&sb, "%3s", satObs.Prn)
	}
	if _, err := fmt.Fprintln(wr.w, sb.String()); err != nil {
		return err
	}

	obsTypes := wr.Header.ObsTypes[wr.Header.SatSystem]
	for _, satObs := range epo.ObsList {
		for pos := 0; pos < len(obsTypes); pos += 5 { // five observations per line
			end := pos + 5
			if end > len(obsTypes) {
				end = len(obsTypes)
			}
			var sb strings.Builder
			for _, typ := range obsTypes[pos:end] {
				sb.WriteString(formatObs(satObs.Obss[typ]))
			}
			if _, err := fmt.Fprintln(wr.w, strings.TrimRight(sb.String(), " ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatObs renders a single observation with its LLI and SNR indicators.
// Zero indicators are written blank. A zero observation means no observation,
// rendered as an all-blank field.
func formatObs(obs Obs) string {
	if obs.Val == 0 && obs.LLI == 0 && obs.SNR == 0 {
		return strings.Repeat(" ", 16)
	}
	lli := " "
	if obs.LLI != 0 {
		lli = strconv.Itoa(int(obs.LLI))
	}
	snr := " "
	if obs.SNR != 0 {
		snr = strconv.Itoa(int(obs.SNR))
	}
	return fmt.Sprintf("%14.3f%s%s", obs.Val, lli, snr)
}
