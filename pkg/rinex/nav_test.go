package rinex

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gnsskit/gnsskit/pkg/gnss"
	"github.com/stretchr/testify/assert"
)

// writeNavFile stores the mixed nav fixture under a RINEX-3 compliant name.
func writeNavFile(t *testing.T) string {
	t.Helper()
	fpath := filepath.Join(t.TempDir(), "AREG00PER_R_20201690000_01D_MN.rnx")
	if err := os.WriteFile(fpath, []byte(navFixtureV3), 0666); err != nil {
		t.Fatalf("write nav file: %v", err)
	}
	return fpath
}

func TestNavFile_ReadHeader(t *testing.T) {
	assert := assert.New(t)
	fil, err := NewNavFile(writeNavFile(t))
	assert.NoError(err)
	assert.NotNil(fil)

	hdr, err := fil.ReadHeader()
	assert.NoError(err)
	assert.Equal(float32(3.04), hdr.RINEXVersion, "RINEX Version")
	assert.Equal(gnss.SysMIXED, hdr.SatSystem, "Satellite System")
	assert.Equal("MN", fil.DataType, "DataType from filename")
	assert.Equal("AREG", fil.FourCharID, "station from filename")
}

func TestNavFile_GetStats(t *testing.T) {
	assert := assert.New(t)
	fil, err := NewNavFile(writeNavFile(t))
	assert.NoError(err)

	stats, err := fil.GetStats()
	assert.NoError(err)
	t.Logf("%+v", stats)
	assert.Equal(3, stats.NumEphemeris, "number of ephemerides")
	assert.ElementsMatch(gnss.Systems{gnss.SysGPS, gnss.SysGLO, gnss.SysGAL}, stats.SatSystems, "satellite systems")
	assert.Equal([]gnss.PRN{
		{Sys: gnss.SysGPS, Num: 12},
		{Sys: gnss.SysGLO, Num: 1},
		{Sys: gnss.SysGAL, Num: 8},
	}, stats.Satellites, "satellites, sorted")
	assert.Equal(gnss.Instant{Time: time.Date(2020, 6, 17, 2, 0, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC}, stats.EarliestEphTime, "earliest TOC")
	assert.Equal(gnss.Instant{Time: time.Date(2020, 6, 17, 21, 45, 0, 0, time.UTC), Scale: gnss.TimeScaleUTC}, stats.LatestEphTime, "latest TOC")
	assert.Equal(stats, *fil.Stats)
}
