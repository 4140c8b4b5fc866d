package domain

import (
	"sort"
)

// Series is the date-ordered observations of one location.
type Series struct {
	Location     string
	Observations []Observation
}

// GroupSeries splits the dataset by location. Groups appear in first-occurrence
// order and each group is stable-sorted by date, with invalid dates first.
func GroupSeries(d *Dataset) []Series {
	index := make(map[string]int)
	var out []Series
	for _, o := range d.observations {
		i, ok := index[o.Location]
		if !ok {
			i = len(out)
			index[o.Location] = i
			out = append(out, Series{Location: o.Location})
		}
		out[i].Observations = append(out[i].Observations, o)
	}
	for i := range out {
		obs := out[i].Observations
		sort.SliceStable(obs, func(a, b int) bool {
			return obs[a].Date.Before(obs[b].Date)
		})
	}
	return out
}
