package rinex

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gnsskit/gnsskit/pkg/gnss"
)

// Eph is the interface that wraps the methods of all types of ephemeris.
type Eph interface {
	// Validate checks the ephemeris.
	Validate() error

	// GetPRN returns the ephemeris' satellite.
	GetPRN() gnss.PRN

	// GetTime returns the ephemeris' time of clock (TOC).
	GetTime() gnss.Instant
}

// EphGPS describes a GPS ephemeris.
type EphGPS struct {
	PRN gnss.PRN
	TOC gnss.Instant // Time of Clock

	ClockBias      float64 // sc clock bias in seconds
	ClockDrift     float64 // sec/sec
	ClockDriftRate float64 // sec/sec2

	IODE   float64 // Issue of Data, Ephemeris
	Crs    float64 // meters
	DeltaN float64 // radians/sec
	M0     float64 // radians

	Cuc   float64 // radians
	Ecc   float64 // Eccentricity
	Cus   float64 // radians
	SqrtA float64 // sqrt(m)

	Toe    float64 // time of ephemeris, sec of GPS week
	Cic    float64 // radians
	Omega0 float64 // radians
	Cis    float64 // radians

	I0       float64 // radians
	Crc      float64 // meters
	Omega    float64 // radians
	OmegaDot float64 // radians/sec

	IDOT    float64 // radians/sec
	L2Codes float64
	ToeWeek float64 // GPS week (continuous number)

	L2PFlag     float64
	URA         float64 // SV accuracy in meters
	Health      float64 // SV health
	TGD         float64 // seconds
	IODC        float64 // Issue of Data, clock
	Tom         float64 // transmission time of message, sec of GPS week
	FitInterval float64 // Fit interval in hours
}

func (eph *EphGPS) Validate() error       { return nil }
func (eph *EphGPS) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphGPS) GetTime() gnss.Instant { return eph.TOC }

// EphGLO describes a GLONASS ephemeris.
type EphGLO struct {
	PRN gnss.PRN
	TOC gnss.Instant
}

func (eph *EphGLO) Validate() error       { return nil }
func (eph *EphGLO) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphGLO) GetTime() gnss.Instant { return eph.TOC }

// EphGAL describes a Galileo ephemeris.
type EphGAL struct {
	PRN gnss.PRN
	TOC gnss.Instant
}

func (eph *EphGAL) Validate() error       { return nil }
func (eph *EphGAL) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphGAL) GetTime() gnss.Instant { return eph.TOC }

// EphQZSS describes a QZSS ephemeris.
type EphQZSS struct {
	PRN gnss.PRN
	TOC gnss.Instant
}

func (eph *EphQZSS) Validate() error       { return nil }
func (eph *EphQZSS) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphQZSS) GetTime() gnss.Instant { return eph.TOC }

// EphBDS describes a BeiDou ephemeris.
type EphBDS struct {
	PRN gnss.PRN
	TOC gnss.Instant
}

func (eph *EphBDS) Validate() error       { return nil }
func (eph *EphBDS) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphBDS) GetTime() gnss.Instant { return eph.TOC }

// EphIRNSS describes an IRNSS/NavIC ephemeris.
type EphIRNSS struct {
	PRN gnss.PRN
	TOC gnss.Instant
}

func (eph *EphIRNSS) Validate() error       { return nil }
func (eph *EphIRNSS) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphIRNSS) GetTime() gnss.Instant { return eph.TOC }

// EphSBAS describes an SBAS payload.
type EphSBAS struct {
	PRN gnss.PRN
	TOC gnss.Instant
}

func (eph *EphSBAS) Validate() error       { return nil }
func (eph *EphSBAS) GetPRN() gnss.PRN      { return eph.PRN }
func (eph *EphSBAS) GetTime() gnss.Instant { return eph.TOC }

// A NavHeader provides the RINEX Navigation Header information.
type NavHeader struct {
	RINEXVersion float32     // RINEX Format version
	RINEXType    string      // RINEX File type. N for Nav
	SatSystem    gnss.System // Satellite System. System is "Mixed" if more than one.

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation.

	DOI         string   // Digital Object Identifier (DOI) for data citation.
	Licenses    []string // Line(s) with the data license of use.
	MergedFiles int      // The number of files merged, if any.
	LeapSeconds int      // The current number of leap seconds.

	Comments []string
	Labels   []string // all header labels found
}

// NavStats holds some statistics about a RINEX nav file, derived from the data.
type NavStats struct {
	NumEphemeris    int          `json:"numEphemeris"`
	SatSystems      gnss.Systems `json:"systems"`
	Satellites      []gnss.PRN   `json:"satellites"`
	EarliestEphTime gnss.Instant `json:"earliestEphTime"` // TOC of the first ephemeris.
	LatestEphTime   gnss.Instant `json:"latestEphTime"`   // TOC of the last ephemeris.
}

// A NavFile contains fields and methods for RINEX navigation files.
// Use NewNavFile() to instantiate a new NavFile.
type NavFile struct {
	*RnxFil
	Header *NavHeader
	Stats  *NavStats // Some ephemeris statistics.
}

// NewNavFile returns a new NavFile. The file must exist and the name will be parsed.
func NewNavFile(filepath string) (*NavFile, error) {
	navFil := &NavFile{RnxFil: &RnxFil{Path: filepath}, Header: &NavHeader{}}
	err := navFil.parseFilename()
	return navFil, err
}

// ReadHeader parses and returns the header lines.
func (f *NavFile) ReadHeader() (NavHeader, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return NavHeader{}, err
	}
	defer r.Close()
	dec, err := NewNavDecoder(r)
	if err != nil {
		return NavHeader{}, err
	}
	f.Header = &dec.Header
	return dec.Header, nil
}

// GetStats reads the file and returns some statistics about the ephemerides it holds.
func (f *NavFile) GetStats() (stats NavStats, err error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	dec, err := NewNavDecoder(r)
	if err != nil {
		return stats, err
	}
	f.Header = &dec.Header
	dec.fastMode = true

	seenSystems := make(map[gnss.System]struct{}, 5)
	seenSats := make(map[gnss.PRN]struct{}, 60)
	for dec.NextEphemeris() {
		stats.NumEphemeris++
		eph := dec.Ephemeris()

		prn := eph.GetPRN()
		if _, exists := seenSystems[prn.Sys]; !exists {
			seenSystems[prn.Sys] = struct{}{}
			stats.SatSystems = append(stats.SatSystems, prn.Sys)
		}
		if _, exists := seenSats[prn]; !exists {
			seenSats[prn] = struct{}{}
			stats.Satellites = append(stats.Satellites, prn)
		}

		toc := eph.GetTime()
		if stats.EarliestEphTime.IsZero() || toc.Before(stats.EarliestEphTime.Time) {
			stats.EarliestEphTime = toc
		}
		if stats.LatestEphTime.IsZero() || toc.After(stats.LatestEphTime.Time) {
			stats.LatestEphTime = toc
		}
	}
	if err := dec.Err(); err != nil {
		return stats, fmt.Errorf("read all ephemerides: %w", err)
	}

	sort.Sort(gnss.ByPRN(stats.Satellites))
	f.Stats = &stats
	return stats, nil
}
