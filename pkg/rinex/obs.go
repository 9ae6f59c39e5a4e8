package rinex

import (
	"fmt"
	"log"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gnsskit/gnsskit/pkg/gnss"
	"github.com/go-playground/validator/v10"
)

// The RINEX observation code that specifies frequency, signal and tracking mode like "L1C".
type ObsCode string

// Options for global settings.
type Options struct {
	SatSys string // satellite systems GRE...
}

// Coord defines a XYZ coordinate.
type Coord struct {
	X, Y, Z float64
}

// CoordNEU defines a North-, East-, Up-coordinate or eccentrity
type CoordNEU struct {
	N, E, Up float64
}

// Obs specifies a RINEX observation.
type Obs struct {
	Val float64 // The observation itself.
	LLI int8    // LLI is the loss of lock indicator.
	SNR int8    // SNR is the signal-to-noise ratio.
}

// SatObs contains all observations for a satellite per epoch.
type SatObs struct {
	Prn  gnss.PRN        // The satellite number or PRN.
	Obss map[ObsCode]Obs // A map of observations with the obs-code as key. L1C: Obs{Val:0, LLI:0, SNR:0}, L2C: Obs{Val:...},...
}

// SyncEpochs contains two epochs from different files with the same timestamp.
type SyncEpochs struct {
	Epo1 *Epoch
	Epo2 *Epoch
}

// Epoch contains a RINEX obs data epoch.
type Epoch struct {
	Time    gnss.Instant // The epoch time, in the file's time system.
	Flag    EpochFlag    // The epoch flag.
	NumSat  uint8        // The number of satellites per epoch.
	ObsList []SatObs     // The list of observations per epoch.
}

// Print pretty prints the epoch.
func (epo *Epoch) Print() {
	fmt.Printf("%s Flag: %d #prn: %d\n", epo.Time, epo.Flag, epo.NumSat)
	for _, satObs := range epo.ObsList {
		fmt.Printf("%v -------------------------------------\n", satObs.Prn)
		for code, obs := range satObs.Obss {
			fmt.Printf("%s: %+v\n", code, obs)
		}
	}
}

// PrintTab prints the epoch in a tabular format.
func (epo *Epoch) PrintTab(opts Options) {
	for _, obsPerSat := range epo.ObsList {
		printSys := false
		for _, useSys := range opts.SatSys {
			if obsPerSat.Prn.Sys.Abbr() == string(useSys) {
				printSys = true
				break
			}
		}

		if !printSys {
			continue
		}

		fmt.Printf("%s %v ", epo.Time.Format(time.RFC3339Nano), obsPerSat.Prn)
		for _, obs := range obsPerSat.Obss {
			fmt.Printf("%14.03f ", obs.Val)
		}
		fmt.Printf("\n")
	}
}

// ObsStats holds some statistics about a RINEX obs file, derived from the data.
type ObsStats struct {
	NumEpochs      int                          `json:"numEpochs"`      // The number of epochs in the file.
	NumSatellites  int                          `json:"numSatellites"`  // The number of satellites derived from the data.
	Sampling       time.Duration                `json:"sampling"`       // The sampling interval derived from the data.
	TimeOfFirstObs gnss.Instant                 `json:"timeOfFirstObs"` // Time of the first observation.
	TimeOfLastObs  gnss.Instant                 `json:"timeOfLastObs"`  // Time of the last observation.
	ObsPerSat      map[gnss.PRN]map[ObsCode]int `json:"obsstats"`       // Number of observations per PRN and observation-type.
}

// A ObsHeader provides the RINEX Observation Header information.
type ObsHeader struct {
	RINEXVersion float32 `validate:"required"` // RINEX Format version
	RINEXType    string  `validate:"required"` // RINEX File type. O for Obs
	// The header satellite system. Note that system is "Mixed" if more than one. Use SatSystems() to get a list of all used systems.
	SatSystem gnss.System `validate:"required"`

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation.

	Comments []string // * comment lines

	MarkerName   string `validate:"required"` // The name of the antenna marker, usually the 9-character station ID.
	MarkerNumber string // The IERS DOMES number assigned to the station marker is expected.
	MarkerType   string // Type of the marker. See RINEX specification.

	Observer, Agency string

	ReceiverNumber, ReceiverType, ReceiverVersion string
	AntennaNumber, AntennaType                    string

	Position     Coord    // Geocentric approximate marker position [m]
	AntennaDelta CoordNEU // North,East,Up deltas in [m]

	DOI          string   // Digital Object Identifier (DOI) for data citation i.e. https://doi.org/<DOI-number>.
	License      string   // Line(s) with the data license of use.
	StationInfos []string // Line(s) with the link(s) to persistent URL with the station metadata.

	ObsTypes map[gnss.System][]ObsCode `validate:"required,min=1"` // List of all observation types per GNSS.

	SignalStrengthUnit string
	Interval           float64 `validate:"gte=0"` // Observation interval in seconds
	TimeOfFirstObs     gnss.Instant
	TimeOfLastObs      gnss.Instant
	TimeSystem         gnss.TimeScale   // The time system the observations refer to.
	GloSlots           map[gnss.PRN]int // GLONASS slot and frequency numbers.
	LeapSeconds        int              // The current number of leap seconds
	NSatellites        int              // Number of satellites, for which observations are stored in the file

	Labels []string // all Header Labels found.
}

// SatSystems returns all used satellite systems. The header must have been read before.
// For RINEX-2 files use SatSystem().
func (hdr *ObsHeader) SatSystems() []gnss.System {
	if hdr.ObsTypes == nil {
		return []gnss.System{}
	}
	sysList := make([]gnss.System, 0, len(hdr.ObsTypes))
	for sys := range hdr.ObsTypes {
		sysList = append(sysList, sys)
	}
	return sysList
}

// use a single instance of Validate, it caches struct info
var validate *validator.Validate

// Validate checks the header for fields that any usable observation file must carry.
func (hdr *ObsHeader) Validate() error {
	if validate == nil {
		validate = validator.New()
	}
	return validate.Struct(hdr)
}

// ObsFile contains fields and methods for RINEX observation files.
// Use NewObsFile() to instantiate a new ObsFile.
type ObsFile struct {
	*RnxFil
	Header   *ObsHeader
	Opts     *Options
	Stats    *ObsStats // Some observation statistics.
	Warnings []string  // Warnings that came up during reading.
}

// NewObsFile returns a new ObsFile. The file must exist and the name will be parsed.
func NewObsFile(filepath string) (*ObsFile, error) {
	obsFil := &ObsFile{RnxFil: &RnxFil{Path: filepath}, Header: &ObsHeader{}, Opts: &Options{}}
	err := obsFil.parseFilename()
	return obsFil, err
}

// ReadHeader parses and returns the header lines.
func (f *ObsFile) ReadHeader() (ObsHeader, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return ObsHeader{}, err
	}
	defer r.Close()
	dec, err := NewObsDecoder(r)
	if err != nil {
		return ObsHeader{}, err
	}
	f.Header = &dec.Header
	return dec.Header, nil
}

// Diff compares two RINEX obs files.
func (f *ObsFile) Diff(obsFil2 *ObsFile) error {
	// file 1
	r, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open obs file: %v", err)
	}
	defer r.Close()
	dec, err := NewObsDecoder(r)
	if err != nil {
		return err
	}

	// file 2
	r2, err := os.Open(obsFil2.Path)
	if err != nil {
		return fmt.Errorf("open obs file: %v", err)
	}
	defer r2.Close()
	dec2, err := NewObsDecoder(r2)
	if err != nil {
		return err
	}

	nSyncEpochs := 0
	for dec.sync(dec2) {
		nSyncEpochs++
		syncEpo := dec.SyncEpoch()

		diff := diffEpo(syncEpo, *f.Opts)
		if diff != "" {
			log.Printf("diff: %s", diff)
		}
	}
	if err := dec.Err(); err != nil {
		return fmt.Errorf("read epochs error: %v", err)
	}

	return nil
}

// ComputeObsStats reads the file and computes some statistics on the observations.
func (f *ObsFile) ComputeObsStats() (stats ObsStats, err error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return
	}
	defer r.Close()
	dec, err := NewObsDecoder(r)
	if err != nil {
		if dec.Header.RINEXType != "" {
			f.Header = &dec.Header
		}
		return
	}
	f.Header = &dec.Header

	numSat := 60
	if f.Header.NSatellites > 0 {
		numSat = f.Header.NSatellites
	}

	satmap := make(map[string]int, numSat)

	obsstats := make(map[gnss.PRN]map[ObsCode]int, numSat)
	numOfEpochs := 0
	intervals := make([]time.Duration, 0, 10)
	var epo, epoPrev *Epoch

	for dec.NextEpoch() {
		numOfEpochs++
		epo = dec.Epoch()
		if numOfEpochs == 1 {
			stats.TimeOfFirstObs = epo.Time
		}

		for _, obsPerSat := range epo.ObsList {
			prn := obsPerSat.Prn

			// list of all satellites
			if _, exists := satmap[prn.String()]; !exists {
				satmap[prn.String()] = 1
			}

			// number of observations per sat and obs-type
			for obstype, obs := range obsPerSat.Obss {
				if _, exists := obsstats[prn]; !exists {
					obsstats[prn] = map[ObsCode]int{}
				}
				if _, exists := obsstats[prn][obstype]; !exists {
					obsstats[prn][obstype] = 0
				}
				if obs.Val != 0 {
					obsstats[prn][obstype]++
				}
			}
		}

		if epoPrev != nil && len(intervals) <= 10 {
			intervals = append(intervals, epo.Time.Sub(epoPrev.Time.Time))
		}
		epoPrev = epo
	}
	if err = dec.Err(); err != nil {
		return stats, err
	}

	if numOfEpochs == 0 {
		stats.NumEpochs = numOfEpochs
		f.Stats = &stats
		return stats, nil
	}

	stats.TimeOfLastObs = epoPrev.Time
	stats.NumEpochs = numOfEpochs
	stats.NumSatellites = len(satmap)
	stats.ObsPerSat = obsstats

	// Check observation types, see #637
	if types, exists := f.Header.ObsTypes[gnss.SysGPS]; exists {
		for _, typ := range types {
			if typ == "L2P" || typ == "C2P" {
				f.Warnings = append(f.Warnings, "observation types 'L2P' and 'C2P' are not reasonable for GPS")
				break
			}
		}
	}

	// Sampling rate
	if len(intervals) > 1 {
		sort.Slice(intervals, func(i, j int) bool { return intervals[i] < intervals[j] })
		stats.Sampling = intervals[int(len(intervals)/2)]
	}

	f.Stats = &stats

	return stats, err
}

// IsHatanakaCompressed returns true if the obs file is Hatanaka compressed, otherwise false.
func (f *ObsFile) IsHatanakaCompressed() bool {
	if f.Format != "" {
		return f.Format == "crx"
	}
	return IsHatanakaCompressed(f.Path)
}

// IsHatanakaCompressed returns true if the file given by filename is Hatanaka compressed.
// This is checked by the filenames' extension.
func IsHatanakaCompressed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".crx" || strings.HasSuffix(ext, "d") { // .21d
		return true
	}
	return false
}

// getDecimal returns the decimal part of the float.
func getDecimal(f float64) float64 {
	fBig := big.NewFloat(f)
	fint, _ := fBig.Int(nil)
	intf := new(big.Float).SetInt(fint)
	resBig := new(big.Float).Sub(fBig, intf)
	ff, _ := resBig.Float64()
	return ff
}

// diffEpo compares two epochs.
func diffEpo(epochs SyncEpochs, opts Options) string {
	epo1, epo2 := epochs.Epo1, epochs.Epo2
	epoTime := epo1.Time

	for _, obs := range epo1.ObsList {
		printSys := false
		for _, useSys := range opts.SatSys {
			if obs.Prn.Sys.Abbr() == string(useSys) {
				printSys = true
				break
			}
		}

		if !printSys {
			continue
		}

		obs2, err := getObsByPRN(epo2.ObsList, obs.Prn)
		if err != nil {
			log.Printf("%v", err)
			continue
		}

		diffObs(obs, obs2, epoTime, obs.Prn)
	}

	return ""
}

func getObsByPRN(obslist []SatObs, prn gnss.PRN) (SatObs, error) {
	for _, obs := range obslist {
		if obs.Prn == prn {
			return obs, nil
		}
	}

	return SatObs{}, fmt.Errorf("no observations found for prn %v", prn)
}

func diffObs(obs1, obs2 SatObs, epoTime gnss.Instant, prn gnss.PRN) string {
	deltaPhase := 0.005
	checkSNR := false
	for k, o1 := range obs1.Obss {
		if o2, ok := obs2.Obss[k]; ok {
			val1, val2 := o1.Val, o2.Val
			if strings.HasPrefix(string(k), "L") { // phase observations
				val1 = getDecimal(val1)
				val2 = getDecimal(val2)
			}
			if (o1.LLI != o2.LLI) || (math.Abs(val1-val2) > deltaPhase) {
				log.Printf("%s %v %02d %s %s %14.03f %d %d | %14.03f %d %d", epoTime, prn.Sys, prn.Num, k[:1], k, val1, o1.LLI, o1.SNR, val2, o2.LLI, o2.SNR)
			} else if checkSNR && o1.SNR != o2.SNR {
				log.Printf("%s %v %02d %s %s %14.03f %d %d | %14.03f %d %d", epoTime, prn.Sys, prn.Num, k[:1], k, val1, o1.LLI, o1.SNR, val2, o2.LLI, o2.SNR)
			}
		} else {
			log.Printf("Key %q does not exist", k)
		}
	}

	return ""
}

// Convert strings to Obscodes.
func convStringsToObscodes(strs []string) []ObsCode {
	obscodes := make([]ObsCode, 0, len(strs))
	for _, str := range strs {
		obscodes = append(obscodes, ObsCode(str))
	}
	return obscodes
}
