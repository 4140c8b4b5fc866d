// Package domain models daily precipitation observations for a fixed set of
// weather stations and the view state of the chart that plots them.
//
// # Data Source
//
// Each location publishes one CSV file with a header row and one row per day:
//
//	date,actual_precipitation,average_precipitation,record_precipitation
//	2014-7-1,0.00,0.10,2.17
//
// The date column uses the US weather-history convention "YYYY-M-D" (ISO
// dates with zero padding are accepted as well). Precipitation is in inches.
//
// # Coercion
//
// Rows are never rejected. A numeric cell that is empty or not a number
// becomes NaN, and a date cell that cannot be parsed becomes the zero time.
// Both are "undefined for plotting": they are skipped when computing extents
// and they break a series' line into separate segments. See [ParseNumber] and
// [ParseDate].
//
// # Series and colours
//
// [GroupSeries] splits a [Dataset] into one [Series] per location in
// first-occurrence order, each sorted by date. [ColorAssignment] maps the
// same ordered identifier list onto the ColorBrewer Set2 palette, so a
// location keeps its colour for the lifetime of the process.
package domain
