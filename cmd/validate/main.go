// Command validate checks a directory of precipitation CSV files before it is
// served. Every file is fetched and parsed the same way the chart loads it,
// then checked for row counts, date quality, value ranges and whether each
// variable has anything to plot.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data
//	go run ./cmd/validate -data-dir data -locations locations.yaml
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/precip-chart/internal/adapter/source"
	"github.com/couchcryptid/precip-chart/internal/config"
	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/loader"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// locationData is one location's parsed rows, or the reason it could not be read.
type locationData struct {
	loc domain.Location
	obs []domain.Observation
	err error
}

func main() {
	dataDir := flag.String("data-dir", "", "directory containing one CSV file per location")
	locationsFile := flag.String("locations", "", "optional YAML location list (defaults to the built-in stations)")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	locations := domain.DefaultLocations()
	if *locationsFile != "" {
		var err error
		locations, err = config.LoadLocations(*locationsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load locations: %v\n", err)
			os.Exit(1)
		}
	}

	if code := run(*dataDir, locations); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string, locations []domain.Location) int {
	fmt.Println("=== Precipitation Data Validation ===")
	fmt.Println()

	data := loadAll(context.Background(), source.NewFileFetcher(dataDir), locations)

	phases := []*phase{
		validateFiles(data),
		validateDates(data),
		validateValues(data),
		validatePlottable(data),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	for _, d := range data {
		if d.err != nil {
			continue
		}
		fmt.Printf("  %-4s %5d rows", d.loc.Code, len(d.obs))
		for _, f := range domain.Fields {
			fmt.Printf("  %s empty=%d", f, countUndefined(d.obs, f))
		}
		fmt.Println()
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadAll reads each location independently so one bad file does not hide
// problems in the others.
func loadAll(ctx context.Context, fetcher source.Fetcher, locations []domain.Location) []locationData {
	out := make([]locationData, 0, len(locations))
	for _, loc := range locations {
		d := locationData{loc: loc}
		raw, err := fetcher.Fetch(ctx, loc.File)
		if err != nil {
			d.err = err
		} else {
			d.obs, d.err = loader.Parse(loc.Code, bytes.NewReader(raw))
		}
		out = append(out, d)
	}
	return out
}

func countUndefined(obs []domain.Observation, f domain.Field) int {
	n := 0
	for _, o := range obs {
		if !o.Defined(f) {
			n++
		}
	}
	return n
}

// ── Phase 1: Files ──
// Every location's file must exist, parse, and carry at least one row.

func validateFiles(data []locationData) *phase {
	p := &phase{name: "Phase 1: Files"}
	for _, d := range data {
		switch {
		case d.err != nil:
			p.errorf("%s (%s): %v", d.loc.Code, d.loc.File, d.err)
		case len(d.obs) == 0:
			p.errorf("%s (%s): no data rows", d.loc.Code, d.loc.File)
		}
	}
	return p
}

// ── Phase 2: Dates ──
// Dates must parse, be unique per location, and appear in ascending order.

func validateDates(data []locationData) *phase {
	p := &phase{name: "Phase 2: Dates"}
	for _, d := range data {
		seen := make(map[time.Time]int, len(d.obs))
		var prev time.Time
		for i, o := range d.obs {
			line := i + 2
			if !o.HasDate() {
				p.errorf("%s line %d: unparseable date", d.loc.Code, line)
				continue
			}
			if first, dup := seen[o.Date]; dup {
				p.errorf("%s line %d: duplicate date %s (first on line %d)", d.loc.Code, line, o.Date.Format(time.DateOnly), first)
			} else {
				seen[o.Date] = line
			}
			if !prev.IsZero() && o.Date.Before(prev) {
				p.errorf("%s line %d: date %s is before %s", d.loc.Code, line, o.Date.Format(time.DateOnly), prev.Format(time.DateOnly))
			}
			prev = o.Date
		}
	}
	return p
}

// ── Phase 3: Values ──
// Precipitation is never negative and a record can never be below the actual value.

func validateValues(data []locationData) *phase {
	p := &phase{name: "Phase 3: Values"}
	for _, d := range data {
		for i, o := range d.obs {
			line := i + 2
			for _, f := range domain.Fields {
				if o.Defined(f) && o.Value(f) < 0 {
					p.errorf("%s line %d: %s is negative (%g)", d.loc.Code, line, f, o.Value(f))
				}
			}
			if o.Defined(domain.ActualPrecipitation) && o.Defined(domain.RecordPrecipitation) &&
				o.Actual > o.Record {
				p.errorf("%s line %d: actual %g exceeds record %g", d.loc.Code, line, o.Actual, o.Record)
			}
		}
	}
	return p
}

// ── Phase 4: Plottable ──
// The combined dataset must have a date extent, and every variable needs at
// least one defined value or the chart shows its no-data placeholder.

func validatePlottable(data []locationData) *phase {
	p := &phase{name: "Phase 4: Plottable"}

	var all []domain.Observation
	for _, d := range data {
		all = append(all, d.obs...)
	}
	ds := domain.NewDataset(all)

	start, end, ok := ds.DateExtent()
	if !ok {
		p.errorf("dataset has no valid dates")
		return p
	}
	fmt.Printf("Date extent: %s to %s\n", start.Format(time.DateOnly), end.Format(time.DateOnly))

	for _, f := range domain.Fields {
		if _, ok := ds.MaxValue(f); !ok {
			p.errorf("%s has no defined values in any location", f)
		}
	}
	return p
}
