package rinex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/gnsskit/gnsskit/pkg/gnss"
)

// A NavDecoder reads and decodes header and data records from a RINEX Nav input stream.
type NavDecoder struct {
	// The Header is valid after NewNavDecoder. The header must not necessarily exist,
	// e.g. if you want to read from a stream. Then ErrNoHeader will be returned.
	Header   NavHeader
	sc       *bufio.Scanner
	eph      Eph
	fastMode bool // In fast mode, only the PRN and TOC are read.
	lineNum  int
	err      error
}

// NewNavDecoder creates a new decoder for RINEX Navigation data.
// The RINEX header will be read implicitly. The header must not exist, e.g.
// for reading from streams. In that case ErrNoHeader will be returned.
func NewNavDecoder(r io.Reader) (*NavDecoder, error) {
	dec := &NavDecoder{sc: bufio.NewScanner(r)}
	var err error
	dec.Header, err = dec.readHeader()
	return dec, err
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *NavDecoder) Err() error {
	if dec.err == io.EOF {
		return nil
	}
	return dec.err
}

// setErr adds an error.
func (dec *NavDecoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}

// readHeader reads a RINEX Navigation header. If the data does not begin with a
// header, ErrNoHeader will be returned.
func (dec *NavDecoder) readHeader() (hdr NavHeader, err error) {
	maxLines := 300
readln:
	for dec.readLine() {
		line := dec.line()

		if dec.lineNum == 1 {
			if !strings.Contains(line, "RINEX VERS") {
				err = ErrNoHeader
				return
			}
		}
		if dec.lineNum > maxLines {
			return hdr, fmt.Errorf("read header: line %d reached without finding end of header", maxLines)
		}
		if len(line) < 60 {
			continue
		}

		val := line[:60] // RINEX files are ASCII
		key := strings.TrimSpace(line[60:])
		hdr.Labels = append(hdr.Labels, key)

		switch key {
		case "RINEX VERSION / TYPE":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val[:20]), 32); err == nil {
				hdr.RINEXVersion = float32(f64)
			} else {
				return hdr, fmt.Errorf("parse RINEX VERSION: %v", err)
			}
			hdr.RINEXType = strings.TrimSpace(val[20:21])

			// RINEX-2 nav files have no satellite system field, it derives from the file type.
			if hdr.RINEXVersion < 3 {
				switch hdr.RINEXType {
				case "N":
					hdr.SatSystem = gnss.SysGPS
				case "G":
					hdr.SatSystem = gnss.SysGLO
				case "E", "L":
					hdr.SatSystem = gnss.SysGAL
				case "C":
					hdr.SatSystem = gnss.SysBDS
				case "J":
					hdr.SatSystem = gnss.SysQZSS
				case "H", "S":
					hdr.SatSystem = gnss.SysSBAS
				default:
					return hdr, fmt.Errorf("read header: invalid file type: %q", hdr.RINEXType)
				}
				continue
			}

			if sys, perr := gnss.ParseSystem(val[40:41]); perr == nil {
				hdr.SatSystem = sys
			} else {
				err = fmt.Errorf("read header: invalid satellite system in line %d: %s", dec.lineNum, line)
				return
			}
		case "PGM / RUN BY / DATE":
			if hdr.Pgm != "" {
				continue
			}
			hdr.Pgm = strings.TrimSpace(val[:20])
			hdr.RunBy = strings.TrimSpace(val[20:40])
			if date, err := parseHeaderDate(strings.TrimSpace(val[40:])); err == nil {
				hdr.Date = date
			} else {
				log.Printf("parse header date: %q, %v", val[40:], err)
			}
		case "COMMENT":
			hdr.Comments = append(hdr.Comments, strings.TrimSpace(val))
		case "MERGED FILE":
			if i, perr := strconv.Atoi(strings.TrimSpace(val)); perr == nil {
				hdr.MergedFiles = i
			}
		case "DOI":
			hdr.DOI = strings.TrimSpace(val)
		case "LICENSE OF USE":
			hdr.Licenses = append(hdr.Licenses, strings.TrimSpace(val))
		case "LEAP SECONDS":
			hdr.LeapSeconds, err = strconv.Atoi(strings.TrimSpace(val[:6]))
			if err != nil {
				return hdr, fmt.Errorf("parse LEAP SECONDS: %v", err)
			}
		case "ION ALPHA", "ION BETA", "IONOSPHERIC CORR", "DELTA-UTC: A0,A1,T,W", "CORR TO SYSTEM TIME", "TIME SYSTEM CORR":
			// not stored
		case "END OF HEADER":
			break readln
		default:
			log.Printf("Header field %q not handled yet", key)
		}
	}

	err = dec.sc.Err()
	return
}

// NextEphemeris reads the next ephemeris into the decoder.
// It returns false when the decoding stopped, either by reaching the end of the
// input or because of an error. After NextEphemeris returns false, the Err method
// will return any error that occurred during decoding.
//
// Use the Ephemeris method to get the decoded ephemeris.
func (dec *NavDecoder) NextEphemeris() bool {
	if dec.Header.RINEXVersion >= 4 {
		dec.setErr(fmt.Errorf("rinex: version %.2f is not supported", dec.Header.RINEXVersion))
		return false
	}
	if dec.Header.RINEXVersion < 3 {
		return dec.nextEphemerisv2()
	}
	return dec.nextEphemerisv3()
}

// nextEphemerisv2 reads the next RINEX-2 ephemeris. The satellite system is
// the one of the file type, given in the header.
func (dec *NavDecoder) nextEphemerisv2() bool {
	for dec.readLine() {
		line := dec.line()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) < 22 {
			dec.setErr(fmt.Errorf("rinex: invalid nav record in line %d: %q", dec.lineNum, line))
			return false
		}

		if err := dec.decodeEPH(dec.Header.SatSystem); err != nil {
			dec.setErr(err)
			return false
		}
		return true
	}
	if err := dec.sc.Err(); err != nil {
		dec.setErr(err)
	}
	return false
}

// nextEphemerisv3 reads the next RINEX-3 ephemeris, with the satellite system
// given at the beginning of each record.
func (dec *NavDecoder) nextEphemerisv3() bool {
	for dec.readLine() {
		line := dec.line()
		if len(line) < 1 {
			continue
		}
		if !strings.ContainsAny(line[:1], "GREJCIS") {
			log.Printf("rinex: skip line %d: %q", dec.lineNum, line)
			continue
		}
		if len(line) < 23 {
			dec.setErr(fmt.Errorf("rinex: invalid nav record in line %d: %q", dec.lineNum, line))
			return false
		}

		sys, err := gnss.ParseSystem(line[:1])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: invalid satellite system in line %d: %q", dec.lineNum, line))
			return false
		}

		if err := dec.decodeEPH(sys); err != nil {
			dec.setErr(err)
			return false
		}
		return true
	}
	if err := dec.sc.Err(); err != nil {
		dec.setErr(err)
	}
	return false
}

// Ephemeris returns the most recent ephemeris generated by a call to NextEphemeris.
func (dec *NavDecoder) Ephemeris() Eph {
	return dec.eph
}

// decodeEPH decodes the ephemeris record beginning at the current line.
func (dec *NavDecoder) decodeEPH(sys gnss.System) error {
	switch sys {
	case gnss.SysGPS:
		return dec.decodeGPS()
	case gnss.SysGLO:
		return dec.decodeGLO()
	case gnss.SysGAL:
		return dec.decodeGAL()
	case gnss.SysQZSS:
		return dec.decodeQZSS()
	case gnss.SysBDS:
		return dec.decodeBDS()
	case gnss.SysIRNSS:
		return dec.decodeIRNSS()
	case gnss.SysSBAS:
		return dec.decodeSBAS()
	}
	return fmt.Errorf("rinex: unknown satellite system: %v", sys)
}

// parsePRN parses the satellite number from the first line of an ephemeris record.
// RINEX-2 records carry the number only, the system derives from the file type.
func (dec *NavDecoder) parsePRN() (gnss.PRN, error) {
	line := dec.line()
	if dec.Header.RINEXVersion < 3 {
		return gnss.NewPRN(dec.Header.SatSystem.Abbr() + line[:2])
	}
	return gnss.NewPRN(line[:3])
}

// parseToC parses the time of clock from the first line of an ephemeris record.
func (dec *NavDecoder) parseToC() (gnss.Instant, error) {
	line := dec.line()
	if dec.Header.RINEXVersion < 3 {
		epo, _, err := ParseEpoch(line[3:22])
		return epo, err
	}
	epo, _, err := ParseEpoch(line[4:23])
	return epo, err
}

// parseFloatsFromLine parses a data record line with up to four float values.
// Fields missing at the end of the line are returned as zero.
func (dec *NavDecoder) parseFloatsFromLine(shift int) (f1, f2, f3, f4 float64, err error) {
	line := dec.line()
	field := func(pos int) string {
		if pos >= len(line) {
			return ""
		}
		if end := pos + 19; end <= len(line) {
			return line[pos:end]
		}
		return line[pos:]
	}

	f1, err = parseFloat(field(4 + shift))
	if err != nil {
		return
	}
	f2, err = parseFloat(field(23 + shift))
	if err != nil {
		return
	}
	f3, err = parseFloat(field(42 + shift))
	if err != nil {
		return
	}
	f4, err = parseFloat(field(61 + shift))
	return
}

// decodeGPS decodes a GPS ephemeris, eight lines.
func (dec *NavDecoder) decodeGPS() (err error) {
	eph := &EphGPS{}
	dec.eph = eph

	// RINEX-2 fields are shifted one column to the left.
	shift := 0
	if dec.Header.RINEXVersion < 3 {
		shift = -1
	}

	line := dec.line()
	if len(line) < 80+shift {
		return fmt.Errorf("rinex: invalid nav record in line %d: %q", dec.lineNum, line)
	}

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	if dec.fastMode {
		dec.skipLines(7)
		return nil
	}

	eph.ClockBias, err = parseFloat(line[23+shift : 42+shift])
	if err != nil {
		return err
	}
	eph.ClockDrift, err = parseFloat(line[42+shift : 61+shift])
	if err != nil {
		return err
	}
	eph.ClockDriftRate, err = parseFloat(line[61+shift : 80+shift])
	if err != nil {
		return err
	}

	var f1, f2, f3, f4 float64
	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, f3, f4, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.IODE, eph.Crs, eph.DeltaN, eph.M0 = f1, f2, f3, f4

	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, f3, f4, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.Cuc, eph.Ecc, eph.Cus, eph.SqrtA = f1, f2, f3, f4

	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, f3, f4, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.Toe, eph.Cic, eph.Omega0, eph.Cis = f1, f2, f3, f4

	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, f3, f4, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.I0, eph.Crc, eph.Omega, eph.OmegaDot = f1, f2, f3, f4

	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, f3, f4, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.IDOT, eph.L2Codes, eph.ToeWeek, eph.L2PFlag = f1, f2, f3, f4

	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, f3, f4, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.URA, eph.Health, eph.TGD, eph.IODC = f1, f2, f3, f4

	if ok := dec.readLine(); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	f1, f2, _, _, err = dec.parseFloatsFromLine(shift)
	if err != nil {
		return err
	}
	eph.Tom, eph.FitInterval = f1, f2

	return nil
}

// decodeGLO decodes a GLONASS ephemeris, four lines, five lines since v3.05.
func (dec *NavDecoder) decodeGLO() (err error) {
	eph := &EphGLO{}
	dec.eph = eph

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	nLines := 4
	if dec.Header.RINEXVersion >= 3.05 {
		nLines = 5
	}
	if ok := dec.skipLines(nLines - 1); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	return nil
}

// decodeGAL decodes a Galileo ephemeris, eight lines.
func (dec *NavDecoder) decodeGAL() (err error) {
	eph := &EphGAL{}
	dec.eph = eph

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	if ok := dec.skipLines(7); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	return nil
}

// decodeQZSS decodes a QZSS ephemeris, eight lines.
func (dec *NavDecoder) decodeQZSS() (err error) {
	eph := &EphQZSS{}
	dec.eph = eph

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	if ok := dec.skipLines(7); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	return nil
}

// decodeBDS decodes a BeiDou ephemeris, eight lines.
func (dec *NavDecoder) decodeBDS() (err error) {
	eph := &EphBDS{}
	dec.eph = eph

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	if ok := dec.skipLines(7); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	return nil
}

// decodeIRNSS decodes an IRNSS/NavIC ephemeris, eight lines.
func (dec *NavDecoder) decodeIRNSS() (err error) {
	eph := &EphIRNSS{}
	dec.eph = eph

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	if ok := dec.skipLines(7); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	return nil
}

// decodeSBAS decodes an SBAS payload, four lines.
func (dec *NavDecoder) decodeSBAS() (err error) {
	eph := &EphSBAS{}
	dec.eph = eph

	eph.PRN, err = dec.parsePRN()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}
	eph.TOC, err = dec.parseToC()
	if err != nil {
		return fmt.Errorf("rinex: line %d: %v", dec.lineNum, err)
	}

	if ok := dec.skipLines(3); !ok {
		return fmt.Errorf("rinex: nav record truncated in line %d", dec.lineNum)
	}
	return nil
}

// readLine reads the next line into the buffer. It returns false if no line
// could be read, due to EOF or an error.
func (dec *NavDecoder) readLine() bool {
	if ok := dec.sc.Scan(); !ok {
		return ok
	}
	dec.lineNum++
	return true
}

// line returns the current line.
func (dec *NavDecoder) line() string {
	return dec.sc.Text()
}

// skipLines reads n lines and drops them.
func (dec *NavDecoder) skipLines(n int) bool {
	for i := 0; i < n; i++ {
		if ok := dec.readLine(); !ok {
			return false
		}
	}
	return true
}
