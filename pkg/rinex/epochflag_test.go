package rinex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_parseEpochFlag(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    EpochFlag
		wantErr bool
	}{
		{name: "t1-0", in: "0", want: EpochFlagOK, wantErr: false},
		{name: "t1-1", in: "1", want: EpochFlagPowerFailure, wantErr: false},
		{name: "t1-2", in: "2", want: EpochFlagMovingAntenna, wantErr: false},
		{name: "t1-6", in: "6", want: EpochFlagCycleSlip, wantErr: false},
		{name: "t-trim", in: " 3 ", want: EpochFlagNewSite, wantErr: false},
		{name: "t-neg", in: "-1", want: EpochFlagOK, wantErr: true},
		{name: "t-toobig", in: "7", want: EpochFlagOK, wantErr: true},
		{name: "t-year", in: "2000", want: EpochFlagOK, wantErr: true},
		{name: "t-alpha", in: "x", want: EpochFlagOK, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEpochFlag(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseEpochFlag() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				if !errors.Is(err, ErrEpochFlag) {
					t.Errorf("parseEpochFlag() error = %v, want ErrEpochFlag", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("parseEpochFlag() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEpochFlag_String(t *testing.T) {
	assert := assert.New(t)
	for i := 0; i <= 6; i++ {
		flag, err := parseEpochFlag(EpochFlag(i).String())
		assert.NoError(err)
		assert.Equal(EpochFlag(i), flag)
	}
}

func TestEpochFlag_Name(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("ok", EpochFlagOK.Name())
	assert.Equal("power failure", EpochFlagPowerFailure.Name())
	assert.Equal("antenna being moved", EpochFlagMovingAntenna.Name())
	assert.Equal("cycle slip", EpochFlagCycleSlip.Name())
}
