package domain

// Location is a weather station whose observations are loaded from File.
type Location struct {
	Code string `yaml:"code" json:"code"`
	Name string `yaml:"name" json:"name"`
	File string `yaml:"file" json:"file"`
}

// Label is the legend text for the location, e.g. "CLT (Charlotte, North Carolina)".
func (l Location) Label() string {
	return l.Code + " (" + l.Name + ")"
}

// DefaultLocations returns the built-in station list.
func DefaultLocations() []Location {
	return []Location{
		{Code: "CLT", Name: "Charlotte, North Carolina", File: "CLT.csv"},
		{Code: "CQT", Name: "Los Angeles, California", File: "CQT.csv"},
		{Code: "IND", Name: "Indianapolis, Indiana", File: "IND.csv"},
		{Code: "JAX", Name: "Jacksonville, Florida", File: "JAX.csv"},
		{Code: "PHL", Name: "Philadelphia, Pennsylvania", File: "PHL.csv"},
		{Code: "MDW", Name: "Chicago, Illinois", File: "MDW.csv"},
		{Code: "PHX", Name: "Phoenix, Arizona", File: "PHX.csv"},
	}
}
