// Command genmock writes deterministic precipitation CSV fixtures, one file
// per station, in the column layout the loader expects. Each generated file is
// read back through the loader's parser so the printed stats match what the
// chart will actually see.
//
// Usage:
//
//	go run ./cmd/genmock -out data -start 2014-07-01 -days 365 -seed 42
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/loader"
	"github.com/jszwec/csvutil"
)

// station shapes the synthetic climate for one location.
type station struct {
	wetness  float64 // mean daily precipitation in inches
	rainyDay float64 // probability of measurable rain on a given day
	peakDay  int     // day of year with the highest seasonal average
}

var climates = map[string]station{
	"CLT": {wetness: 0.12, rainyDay: 0.30, peakDay: 200},
	"CQT": {wetness: 0.04, rainyDay: 0.10, peakDay: 40},
	"IND": {wetness: 0.11, rainyDay: 0.33, peakDay: 160},
	"JAX": {wetness: 0.14, rainyDay: 0.32, peakDay: 230},
	"PHL": {wetness: 0.11, rainyDay: 0.31, peakDay: 200},
	"MDW": {wetness: 0.10, rainyDay: 0.31, peakDay: 170},
	"PHX": {wetness: 0.02, rainyDay: 0.10, peakDay: 215},
}

var defaultClimate = station{wetness: 0.1, rainyDay: 0.3, peakDay: 180}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the generated CSV files")
	start := flag.String("start", "2014-07-01", "first date (YYYY-MM-DD)")
	days := flag.Int("days", 365, "number of days per station")
	seed := flag.Int64("seed", 1, "random seed")
	missing := flag.Float64("missing", 0.01, "fraction of cells left empty")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if *days <= 0 {
		return fmt.Errorf("-days must be positive, got %d", *days)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // fixtures only need reproducibility

	for _, loc := range domain.DefaultLocations() {
		rows := generate(rng, climateFor(loc.Code), first, *days, *missing)
		data, err := csvutil.Marshal(rows)
		if err != nil {
			return fmt.Errorf("encode %s: %w", loc.Code, err)
		}
		path := filepath.Join(*out, loc.File)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		obs, err := loader.Parse(loc.Code, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("re-parse %s: %w", loc.Code, err)
		}
		printStats(loc, obs)
		log.Printf("wrote %s", path)
	}
	return nil
}

func climateFor(code string) station {
	if c, ok := climates[code]; ok {
		return c
	}
	return defaultClimate
}

func generate(rng *rand.Rand, c station, first time.Time, days int, missing float64) []domain.RawRow {
	rows := make([]domain.RawRow, 0, days)
	for i := range days {
		d := first.AddDate(0, 0, i)
		season := 1 + 0.5*math.Cos(2*math.Pi*float64(d.YearDay()-c.peakDay)/365)
		avg := c.wetness * season

		var actual float64
		if rng.Float64() < c.rainyDay {
			actual = rng.ExpFloat64() * avg / c.rainyDay
		}
		record := avg*8 + rng.Float64()*avg*10
		if actual > record {
			record = actual
		}

		rows = append(rows, domain.RawRow{
			Date:    fmt.Sprintf("%d-%d-%d", d.Year(), int(d.Month()), d.Day()),
			Actual:  cell(rng, actual, missing),
			Average: cell(rng, avg, missing),
			Record:  cell(rng, record, missing),
		})
	}
	return rows
}

func cell(rng *rand.Rand, v, missing float64) string {
	if rng.Float64() < missing {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func printStats(loc domain.Location, obs []domain.Observation) {
	undefined := make(map[domain.Field]int, len(domain.Fields))
	maxes := make(map[domain.Field]float64, len(domain.Fields))
	for _, o := range obs {
		for _, f := range domain.Fields {
			if !o.Defined(f) {
				undefined[f]++
				continue
			}
			maxes[f] = math.Max(maxes[f], o.Value(f))
		}
	}
	fmt.Printf("%s: rows=%d", loc.Code, len(obs))
	for _, f := range domain.Fields {
		fmt.Printf(" %s(max=%.2f empty=%d)", f, maxes[f], undefined[f])
	}
	fmt.Println()
}
