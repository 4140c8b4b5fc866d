package domain

// Set2 is the ColorBrewer Set2 qualitative palette.
var Set2 = []string{
	"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3",
	"#a6d854", "#ffd92f", "#e5c494", "#b3b3b3",
}

// UnassignedColor is used for identifiers outside the assignment.
const UnassignedColor = "#999999"

// ColorAssignment maps location identifiers to display colours. It is a pure
// function of the ordered identifier list it was built from.
type ColorAssignment struct {
	ids    []string
	colors map[string]string
}

// NewColorAssignment assigns Set2 colours in order, cycling after eight.
func NewColorAssignment(ids []string) ColorAssignment {
	colors := make(map[string]string, len(ids))
	var ordered []string
	for _, id := range ids {
		if _, dup := colors[id]; dup {
			continue
		}
		colors[id] = Set2[len(ordered)%len(Set2)]
		ordered = append(ordered, id)
	}
	return ColorAssignment{ids: ordered, colors: colors}
}

// Color returns the colour for id.
func (c ColorAssignment) Color(id string) string {
	if col, ok := c.colors[id]; ok {
		return col
	}
	return UnassignedColor
}

// IDs returns the identifiers in assignment order.
func (c ColorAssignment) IDs() []string {
	return append([]string(nil), c.ids...)
}
