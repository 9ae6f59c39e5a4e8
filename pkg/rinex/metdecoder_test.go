package rinex

import (
	"strings"
	"testing"
	"time"

	"github.com/gnsskit/gnsskit/pkg/gnss"
	"github.com/stretchr/testify/assert"
)

const metFixtureV3 = `     3.05           METEOROLOGICAL DATA                     RINEX VERSION / TYPE
MAKERINEX 2.0.56659 NTRIPS20_7B76B7     20221109 140100 UTC PGM / RUN BY / DATE
BAUT                                                        MARKER NAME
14102M001                                                   MARKER NUMBER
     6    PR    TD    HR    WD    WS    RI                  # / TYPES OF OBSERV
M3910031            WXTPTU                        1.0    PR SENSOR MOD/TYPE/ACC
M3910031            WXTPTU                        0.3    TD SENSOR MOD/TYPE/ACC
M3910031            WXTPTU                        2.0    HR SENSOR MOD/TYPE/ACC
M3910031            WXTPTU                        3.0    WD SENSOR MOD/TYPE/ACC
M3910031            WXTPTU                        0.3    WS SENSOR MOD/TYPE/ACC
M3910031            WXTPTU                        0.1    RI SENSOR MOD/TYPE/ACC
  3877548.3000  1004400.3000  4947140.2000      211.9000 PR SENSOR POS XYZ/H
  3877548.3000  1004400.3000  4947140.2000      211.9000 TD SENSOR POS XYZ/H
                                                            END OF HEADER
 2022 11  9 13  0  1  993.4   12.1   63.5  214.0    1.1    0.0
 2022 11  9 13  0 11  993.4   12.1   63.4  213.0    1.0    0.0
 2022 11  9 13  0 21  993.5   12.1   63.3  212.0    1.2    0.0
`

const metFixtureV2 = `     2.11           METEOROLOGICAL DATA                     RINEX VERSION / TYPE
Spider V7.1.1.7438  DGT                 03-NOV-19 00:07     PGM / RUN BY / DATE
FUNC                                                        MARKER NAME
13911S001                                                   MARKER NUMBER
     3    PR    TD    HR                                    # / TYPES OF OBSERV
PAROSCIENTIFIC      MET4A                         0.1    PR SENSOR MOD/TYPE/ACC
PAROSCIENTIFIC      MET4A                         0.2    TD SENSOR MOD/TYPE/ACC
PAROSCIENTIFIC      MET4A                         2.0    HR SENSOR MOD/TYPE/ACC
                                                            END OF HEADER
 19 11  2  0  0  3 1017.5   19.8   76.0
 19 11  2  0 15  3 1017.3   19.9   75.5
 19 11  2  0 30  3 1017.2   19.9   75.3
`

func TestMetDecoder_readHeaderV2(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewMetDecoder(strings.NewReader(metFixtureV2))
	assert.NoError(err)

	hdr := dec.Header
	assert.Equal(float32(2.11), hdr.RINEXVersion)
	assert.Equal("M", hdr.RINEXType)
	assert.Equal("Spider V7.1.1.7438", hdr.Pgm)
	assert.Equal("DGT", hdr.RunBy)
	assert.Equal(time.Date(2019, 11, 3, 0, 7, 0, 0, time.UTC), hdr.Date)
	assert.Equal("FUNC", hdr.MarkerName)
	assert.Equal("13911S001", hdr.MarkerNumber)
	assert.Equal([]MeteoObsType{"PR", "TD", "HR"}, hdr.ObsTypes)
	assert.Equal(3, len(hdr.Sensors))
}

func TestMetDecoder_noHeader(t *testing.T) {
	assert := assert.New(t)
	data := metFixtureV3[strings.Index(metFixtureV3, " 2022 11"):]
	_, err := NewMetDecoder(strings.NewReader(data))
	assert.ErrorIs(err, ErrNoHeader)
}

func TestMetDecoder_nextEpoch(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewMetDecoder(strings.NewReader(metFixtureV3))
	assert.NoError(err)

	epochs := []*MeteoEpoch{}
	for dec.NextEpoch() {
		epochs = append(epochs, dec.Epoch())
	}
	assert.NoError(dec.Err())
	assert.Len(epochs, 3)

	want := &MeteoEpoch{
		Time: gnss.Instant{Time: time.Date(2022, 11, 9, 13, 0, 1, 0, time.UTC), Scale: gnss.TimeScaleUTC},
		Obs:  []float64{993.4, 12.1, 63.5, 214.0, 1.1, 0.0},
	}
	assert.Equal(want, epochs[0], "first epoch")
}

func TestMetDecoder_nextEpochV2(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewMetDecoder(strings.NewReader(metFixtureV2))
	assert.NoError(err)

	epochs := []*MeteoEpoch{}
	for dec.NextEpoch() {
		epochs = append(epochs, dec.Epoch())
	}
	assert.NoError(dec.Err())
	assert.Len(epochs, 3)

	want := &MeteoEpoch{
		Time: gnss.Instant{Time: time.Date(2019, 11, 2, 0, 0, 3, 0, time.UTC), Scale: gnss.TimeScaleUTC},
		Obs:  []float64{1017.5, 19.8, 76.0},
	}
	assert.Equal(want, epochs[0], "first epoch")
	assert.Equal(gnss.Instant{Time: time.Date(2019, 11, 2, 0, 30, 3, 0, time.UTC), Scale: gnss.TimeScaleUTC}, epochs[2].Time, "last epoch time")
}

func Test_decodeMeteoLineHlp(t *testing.T) {
	// Helper test. Go slices are inclusive-exclusive.
	line := " 2022 11  9 13  0  1  993.4   12.1   63.5  214.0    1.1    0.0"
	assert.Equal(t, "2022 11  9 13  0  1", line[1:20], "datetime")
	assert.Equal(t, "  993.4", line[20:27], "1st obs")
	assert.Equal(t, "   12.1", line[27:34], "2nd obs")
}
