package rinex

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/gnsskit/gnsskit/pkg/gnss"
	"github.com/stretchr/testify/assert"
)

const navFixtureV3 = `     3.04           N: GNSS NAV DATA    M: MIXED            RINEX VERSION / TYPE
sbf2rin-13.4.3                          20200618 001127 UTC PGM / RUN BY / DATE
MERGED GPS/GAL/GLO NAVIGATION DATA                          COMMENT
     2                                                      MERGED FILE
10.5880/BKG.2020.001                                        DOI
    18                                                      LEAP SECONDS
                                                            END OF HEADER
G12 2020 06 17 02 00 00 1.051961444318E-04-4.433786671143E-12 0.000000000000E+00
     6.100000000000E+01 5.971875000000E+01 4.119457306218E-09-2.150395402634E+00
     3.147870302200E-06 8.033315883949E-03 3.485009074211E-06 5.153677604675E+03
     2.664000000000E+05 1.061707735062E-07 6.666502414356E-01-5.774199962616E-08
     9.781878686511E-01 3.217500000000E+02 1.162895587886E+00-7.943902323989E-09
     1.325055193867E-10 1.000000000000E+00 2.110000000000E+03 0.000000000000E+00
     2.000000000000E+00 0.000000000000E+00-1.210719347000E-08 6.100000000000E+01
     2.592180000000E+05 4.000000000000E+00
E08 2020 06 17 21 40 00-7.331305788830E-04-8.029132914089E-12 0.000000000000E+00
     9.600000000000E+01 1.288125000000E+02 2.575821866683E-09 5.169956989034E-01
     6.016343832016E-06 2.393249981105E-04 7.327646017075E-06 5.440613332748E+03
     2.508000000000E+05 5.587935447693E-08-8.866543522904E-01 3.352761268616E-08
     9.865869450684E-01 1.859062500000E+02 2.985357718968E+00-5.435226375676E-09
    -4.232319397902E-10 5.170000000000E+02 2.110000000000E+03 0.000000000000E+00
     3.120000000000E+00 0.000000000000E+00 4.889443516731E-09 0.000000000000E+00
     2.514180000000E+05 0.000000000000E+00
R01 2020 06 17 21 45 00 7.713027298450E-05 0.000000000000E+00 7.830000000000E+04
    -9.929199218750E+03-1.658772468567E+00 1.862645149231E-09 0.000000000000E+00
     1.230587011719E+04 1.290647506714E+00 9.313225746155E-10 5.000000000000E+00
     2.146517578125E+04 2.396554946899E+00-2.793967723846E-09 0.000000000000E+00
`

const navFixtureV2 = `     2.11           N: GPS NAV DATA                         RINEX VERSION / TYPE
CCRINEXN V1.6.0 UX  CDDIS               03-JUN-20 00:48     PGM / RUN BY / DATE
IGS BROADCAST EPHEMERIS FILE                                COMMENT
    0.1118D-07  0.7451D-08 -0.5960D-07 -0.1192D-06          ION ALPHA
    0.1167D+06  0.3277D+05 -0.1311D+06 -0.1311D+06          ION BETA
   -0.372529029846D-08-0.266453525910D-14   503808     2108 DELTA-UTC: A0,A1,T,W
    18                                                      LEAP SECONDS
                                                            END OF HEADER
 2 20  6  3  0  0  0.0 0.474322493002D-03 0.204636307899D-11 0.000000000000D+00
    0.830000000000D+02-0.140937500000D+03 0.437089635389D-08 0.165919493565D+01
   -0.723358243704D-05 0.189881808963D-01 0.363401860744D-05 0.515366127968D+04
    0.259200000000D+06 0.111758708954D-07-0.291438527344D+01-0.255182386014D-06
    0.971570246475D+00 0.305096875000D+03 0.288992050348D+01-0.850178301976D-08
   -0.621454445553D-09 0.100000000000D+01 0.210800000000D+04 0.000000000000D+00
    0.240000000000D+01 0.000000000000D+00-0.117905438040D-07 0.830000000000D+02
    0.172818000000D+06 0.400000000000D+01
 5 20  6  3  2  0  0.0-0.263835489750D-04-0.125055521494D-11 0.000000000000D+00
    0.120000000000D+02 0.625000000000D+01 0.478269921862D-08-0.289105388489D+01
    0.421516597271D-06 0.597284885589D-03 0.103153288364D-04 0.515365263748D+04
    0.266400000000D+06-0.279396772385D-07 0.268275121403D+01 0.301748188025D-06
    0.958553094511D+00 0.170468750000D+03 0.647417837146D+00-0.788497128947D-08
    0.236438417000D-09 0.100000000000D+01 0.210800000000D+04 0.000000000000D+00
    0.240000000000D+01 0.000000000000D+00 0.465661287308D-08 0.120000000000D+02
    0.259218000000D+06 0.400000000000D+01
`

func TestNavDecoder_readHeader(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewNavDecoder(strings.NewReader(navFixtureV3))
	assert.NoError(err)

	assert.Equal(float32(3.04), dec.Header.RINEXVersion, "RINEX Version")
	assert.Equal("N", dec.Header.RINEXType, "RINEX Type")
	assert.Equal(gnss.SysMIXED, dec.Header.SatSystem, "Satellite System")
	assert.Equal("sbf2rin-13.4.3", dec.Header.Pgm, "Pgm")
	assert.Equal("", dec.Header.RunBy, "RunBy")
	assert.Equal(time.Date(2020, 6, 18, 0, 11, 27, 0, time.UTC), dec.Header.Date, "Date")
	assert.Equal([]string{"MERGED GPS/GAL/GLO NAVIGATION DATA"}, dec.Header.Comments, "Comments")
	assert.Equal(2, dec.Header.MergedFiles, "merged files")
	assert.Equal("10.5880/BKG.2020.001", dec.Header.DOI, "DOI")
	assert.Equal(18, dec.Header.LeapSeconds, "Leap Seconds")
	assert.NotEmpty(dec.Header.Labels, "Labels")
}

func TestNavDecoder_readHeaderV2(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewNavDecoder(strings.NewReader(navFixtureV2))
	assert.NoError(err)

	assert.Equal(float32(2.11), dec.Header.RINEXVersion, "RINEX Version")
	assert.Equal("N", dec.Header.RINEXType, "RINEX Type")
	assert.Equal(gnss.SysGPS, dec.Header.SatSystem, "Satellite System")
	assert.Equal("CCRINEXN V1.6.0 UX", dec.Header.Pgm, "Pgm")
	assert.Equal("CDDIS", dec.Header.RunBy, "RunBy")
	assert.Equal(time.Date(2020, 6, 3, 0, 48, 0, 0, time.UTC), dec.Header.Date, "Date")
	assert.Equal(18, dec.Header.LeapSeconds, "Leap Seconds")
}

func TestNavDecoder_noHeader(t *testing.T) {
	assert := assert.New(t)
	data := navFixtureV3[strings.Index(navFixtureV3, "G12"):]
	_, err := NewNavDecoder(strings.NewReader(data))
	assert.ErrorIs(err, ErrNoHeader)
}

func TestNavDecoder_nextEphemeris(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewNavDecoder(strings.NewReader(navFixtureV3))
	assert.NoError(err)

	ephs := []Eph{}
	for dec.NextEphemeris() {
		ephs = append(ephs, dec.Ephemeris())
	}
	assert.NoError(dec.Err())
	assert.Len(ephs, 3)

	wantGPS := &EphGPS{
		PRN:            gnss.PRN{Sys: gnss.SysGPS, Num: 12},
		TOC:            gnss.Instant{Time: time.Date(2020, 6, 17, 2, 0, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC},
		ClockBias:      1.051961444318e-04,
		ClockDrift:     -4.433786671143e-12,
		ClockDriftRate: 0,
		IODE:           6.1e+01,
		Crs:            5.971875e+01,
		DeltaN:         4.119457306218e-09,
		M0:             -2.150395402634e+00,
		Cuc:            3.1478703022e-06,
		Ecc:            8.033315883949e-03,
		Cus:            3.485009074211e-06,
		SqrtA:          5.153677604675e+03,
		Toe:            2.664e+05,
		Cic:            1.061707735062e-07,
		Omega0:         6.666502414356e-01,
		Cis:            -5.774199962616e-08,
		I0:             9.781878686511e-01,
		Crc:            3.2175e+02,
		Omega:          1.162895587886e+00,
		OmegaDot:       -7.943902323989e-09,
		IDOT:           1.325055193867e-10,
		L2Codes:        1,
		ToeWeek:        2110,
		L2PFlag:        0,
		URA:            2,
		Health:         0,
		TGD:            -1.210719347e-08,
		IODC:           6.1e+01,
		Tom:            2.59218e+05,
		FitInterval:    4,
	}
	assert.Equal(wantGPS, ephs[0], "GPS ephemeris")

	wantGAL := &EphGAL{
		PRN: gnss.PRN{Sys: gnss.SysGAL, Num: 8},
		TOC: gnss.Instant{Time: time.Date(2020, 6, 17, 21, 40, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC},
	}
	assert.Equal(wantGAL, ephs[1], "Galileo ephemeris")

	wantGLO := &EphGLO{
		PRN: gnss.PRN{Sys: gnss.SysGLO, Num: 1},
		TOC: gnss.Instant{Time: time.Date(2020, 6, 17, 21, 45, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC},
	}
	assert.Equal(wantGLO, ephs[2], "GLONASS ephemeris")
}

func TestNavDecoder_nextEphemerisV2(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewNavDecoder(strings.NewReader(navFixtureV2))
	assert.NoError(err)

	ephs := []Eph{}
	for dec.NextEphemeris() {
		ephs = append(ephs, dec.Ephemeris())
	}
	assert.NoError(dec.Err())
	assert.Len(ephs, 2)

	want := &EphGPS{
		PRN:            gnss.PRN{Sys: gnss.SysGPS, Num: 2},
		TOC:            gnss.Instant{Time: time.Date(2020, 6, 3, 0, 0, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC},
		ClockBias:      0.474322493002e-03,
		ClockDrift:     0.204636307899e-11,
		ClockDriftRate: 0,
		IODE:           83,
		Crs:            -0.1409375e+03,
		DeltaN:         0.437089635389e-08,
		M0:             0.165919493565e+01,
		Cuc:            -0.723358243704e-05,
		Ecc:            0.189881808963e-01,
		Cus:            0.363401860744e-05,
		SqrtA:          0.515366127968e+04,
		Toe:            0.2592e+06,
		Cic:            0.111758708954e-07,
		Omega0:         -0.291438527344e+01,
		Cis:            -0.255182386014e-06,
		I0:             0.971570246475e+00,
		Crc:            0.305096875e+03,
		Omega:          0.288992050348e+01,
		OmegaDot:       -0.850178301976e-08,
		IDOT:           -0.621454445553e-09,
		L2Codes:        1,
		ToeWeek:        2108,
		L2PFlag:        0,
		URA:            2.4,
		Health:         0,
		TGD:            -0.11790543804e-07,
		IODC:           83,
		Tom:            0.172818e+06,
		FitInterval:    4,
	}
	assert.Equal(want, ephs[0], "first GPS ephemeris")

	second := ephs[1].(*EphGPS)
	assert.Equal(gnss.PRN{Sys: gnss.SysGPS, Num: 5}, second.PRN, "PRN")
	assert.Equal(gnss.Instant{Time: time.Date(2020, 6, 3, 2, 0, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC}, second.TOC, "TOC")
	assert.Equal(-0.26383548975e-04, second.ClockBias, "clock bias")
}

func TestNavDecoder_fastMode(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewNavDecoder(strings.NewReader(navFixtureV2))
	assert.NoError(err)
	dec.fastMode = true

	n := 0
	for dec.NextEphemeris() {
		n++
		eph := dec.Ephemeris().(*EphGPS)
		assert.False(eph.TOC.IsZero(), "TOC is read in fast mode")
		assert.Zero(eph.ClockBias, "data fields are skipped in fast mode")
	}
	assert.NoError(dec.Err())
	assert.Equal(2, n, "number of ephemerides")
}

func ExampleNavDecoder() {
	dec, err := NewNavDecoder(strings.NewReader(navFixtureV3))
	if err != nil {
		log.Fatal(err)
	}

	n := 0
	for dec.NextEphemeris() {
		n++
		if gps, ok := dec.Ephemeris().(*EphGPS); ok {
			fmt.Printf("%s: %s\n", gps.PRN, gps.TOC)
		}
	}
	if err := dec.Err(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d ephemerides found.\n", n)
	// Output:
	// G12: 2020-06-17T02:00:00.000000000 UTC
	// 3 ephemerides found.
}

func BenchmarkNextEphemeris(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		dec, err := NewNavDecoder(strings.NewReader(navFixtureV3))
		if err != nil {
			b.Fatal(err)
		}
		for dec.NextEphemeris() {
		}
		if err := dec.Err(); err != nil {
			b.Fatal(err)
		}
	}
}
