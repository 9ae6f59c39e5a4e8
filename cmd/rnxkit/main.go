// Command-line tool for inspecting RINEX files.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/gnsskit/gnsskit/pkg/gnss"
	"github.com/gnsskit/gnsskit/pkg/rinex"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "rnxkit",
		Usage:   "one more RINEX tool",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "stats",
				Usage:     "Print statistics about RINEX obs, nav and meteo files",
				ArgsUsage: "<files...>",
				Action:    runStats,
			},
			{
				Name:      "epochs",
				Usage:     "Print the epoch timestamps of a RINEX obs file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "scale",
						Usage: "re-render the timestamps in this time scale: UTC, GPST, GLONASST, GST, BDT, ...",
					},
					&cli.UintFlag{
						Name:  "version",
						Value: 3,
						Usage: "RINEX version of the output layout: 2 or 3",
					},
				},
				Action: runEpochs,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// runStats prints a summary per file. The files are processed concurrently.
func runStats(c *cli.Context) error {
	files := c.Args().Slice()
	if len(files) == 0 {
		return cli.Exit("stats needs at least one file", 1)
	}

	summaries := make([]string, len(files))
	g := new(errgroup.Group)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			summary, err := statsForFile(name)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, summary := range summaries {
		fmt.Print(summary)
	}
	return nil
}

// statsForFile dispatches by the file type encoded in the filename.
// Compressed files are decompressed first.
func statsForFile(name string) (string, error) {
	fil, err := rinex.NewFile(name)
	if err != nil {
		return "", err
	}
	if rinex.IsCompressed(fil.Path) {
		if err := fil.Decompress(); err != nil {
			return "", fmt.Errorf("decompress: %v", err)
		}
	}

	switch {
	case fil.IsObsType():
		return obsStats(fil.Path)
	case fil.IsNavType():
		return navStats(fil.Path)
	case fil.IsMeteoType():
		return meteoStats(fil.Path)
	}
	return "", fmt.Errorf("unsupported file type %q", fil.DataType)
}

func obsStats(path string) (string, error) {
	obsFil, err := rinex.NewObsFile(path)
	if err != nil {
		return "", err
	}
	stats, err := obsFil.ComputeObsStats()
	if err != nil {
		return "", err
	}
	for _, warn := range obsFil.Warnings {
		log.Printf("W! %s: %s", path, warn)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: obs\n", path)
	fmt.Fprintf(&sb, "  first epoch: %s\n", stats.TimeOfFirstObs)
	fmt.Fprintf(&sb, "  last epoch:  %s\n", stats.TimeOfLastObs)
	fmt.Fprintf(&sb, "  epochs: %d  satellites: %d  sampling: %s\n", stats.NumEpochs, stats.NumSatellites, stats.Sampling)

	prns := make([]gnss.PRN, 0, len(stats.ObsPerSat))
	for prn := range stats.ObsPerSat {
		prns = append(prns, prn)
	}
	sort.Sort(gnss.ByPRN(prns))
	for _, prn := range prns {
		numObs := 0
		for _, n := range stats.ObsPerSat[prn] {
			numObs += n
		}
		fmt.Fprintf(&sb, "  %s: %d obs\n", prn, numObs)
	}
	return sb.String(), nil
}

func navStats(path string) (string, error) {
	navFil, err := rinex.NewNavFile(path)
	if err != nil {
		return "", err
	}
	stats, err := navFil.GetStats()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: nav\n", path)
	fmt.Fprintf(&sb, "  earliest TOC: %s\n", stats.EarliestEphTime)
	fmt.Fprintf(&sb, "  latest TOC:   %s\n", stats.LatestEphTime)
	fmt.Fprintf(&sb, "  ephemerides: %d  systems: %s  satellites: %d\n",
		stats.NumEphemeris, stats.SatSystems, len(stats.Satellites))
	return sb.String(), nil
}

func meteoStats(path string) (string, error) {
	metFil, err := rinex.NewMeteoFile(path)
	if err != nil {
		return "", err
	}
	stats, err := metFil.ComputeObsStats()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: meteo\n", path)
	fmt.Fprintf(&sb, "  first epoch: %s\n", stats.TimeOfFirstObs)
	fmt.Fprintf(&sb, "  last epoch:  %s\n", stats.TimeOfLastObs)
	fmt.Fprintf(&sb, "  epochs: %d  sampling: %s\n", stats.NumEpochs, stats.Sampling)
	return sb.String(), nil
}

// runEpochs streams the epoch timestamps of an obs file, re-rendered in the
// requested layout and time scale. Retagging the instants is exact since they
// share the same absolute timeline.
func runEpochs(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("epochs needs one obs file", 1)
	}

	outVersion := uint8(c.Uint("version"))
	if outVersion < 2 || outVersion > 4 {
		return cli.Exit(fmt.Sprintf("unsupported RINEX version %d", outVersion), 1)
	}

	var scale gnss.TimeScale
	if name := c.String("scale"); name != "" {
		ts, err := gnss.ParseTimeScale(name)
		if err != nil {
			return err
		}
		scale = ts
	}

	r, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer r.Close()

	dec, err := rinex.NewObsDecoder(r)
	if err != nil {
		return err
	}

	for dec.NextEpoch() {
		epo := dec.Epoch()
		ti := epo.Time
		if scale != 0 {
			ti = gnss.Instant{Time: ti.Time, Scale: scale}
		}
		fmt.Println(rinex.FormatEpoch(ti, epo.Flag, rinex.RecordTypeObs, outVersion))
	}
	return dec.Err()
}
