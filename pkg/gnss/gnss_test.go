package gnss

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystems_MarshalJSON(t *testing.T) {
	systems := Systems{SysGAL, SysBDS}
	sysJSON, err := json.Marshal(systems)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "[\"E\",\"C\"]", string(sysJSON), "marshall gnss")
}

func TestSystems_String(t *testing.T) {
	systems := Systems{SysGPS, SysGLO, SysGAL}
	assert.Equal(t, "GPS+GLO+GAL", systems.String())
}

func TestParseSystem(t *testing.T) {
	assert := assert.New(t)
	tests := map[string]System{
		"G": SysGPS,
		"R": SysGLO,
		"E": SysGAL,
		"J": SysQZSS,
		"C": SysBDS,
		"I": SysIRNSS,
		"S": SysSBAS,
		"M": SysMIXED,
	}
	for abbr, want := range tests {
		sys, err := ParseSystem(abbr)
		assert.NoError(err)
		assert.Equal(want, sys)
		assert.Equal(abbr, sys.Abbr())
	}

	_, err := ParseSystem("X")
	assert.Error(err)
}

func TestNewPRN(t *testing.T) {
	tests := []struct {
		prn     string
		want    PRN
		wantErr bool
	}{
		{"G12", PRN{Sys: SysGPS, Num: 12}, false},
		{"R 1", PRN{Sys: SysGLO, Num: 1}, false},
		{"E36", PRN{Sys: SysGAL, Num: 36}, false},
		{"C05", PRN{Sys: SysBDS, Num: 5}, false},
		{"X12", PRN{}, true},
		{"G00", PRN{}, true},
		{"G", PRN{}, true},
		{"Gxx", PRN{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.prn, func(t *testing.T) {
			prn, err := NewPRN(tt.prn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, prn)
		})
	}
}

func TestPRN_String(t *testing.T) {
	prn := PRN{Sys: SysGPS, Num: 4}
	assert.Equal(t, "G04", prn.String())
}

func TestPRN_MarshalText(t *testing.T) {
	counts := map[PRN]int{{Sys: SysGAL, Num: 3}: 120}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "{\"E03\":120}", string(countsJSON))
}

func TestByPRN(t *testing.T) {
	prns := []PRN{
		{Sys: SysGLO, Num: 11},
		{Sys: SysGPS, Num: 31},
		{Sys: SysGPS, Num: 2},
		{Sys: SysGAL, Num: 8},
	}
	sort.Sort(ByPRN(prns))
	assert.Equal(t, []PRN{
		{Sys: SysGAL, Num: 8},
		{Sys: SysGPS, Num: 2},
		{Sys: SysGPS, Num: 31},
		{Sys: SysGLO, Num: 11},
	}, prns)
}
