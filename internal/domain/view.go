package domain

import "time"

// ViewState is everything that drives scale recomputation: the plotted field
// and the visible time window.
type ViewState struct {
	Variable Field     `json:"variable"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ViewEventKind says what changed the view.
type ViewEventKind string

const (
	ViewEventVariable ViewEventKind = "variable"
	ViewEventZoom     ViewEventKind = "zoom"
	ViewEventReset    ViewEventKind = "reset"
)

// ViewEvent records a view change for downstream consumers.
type ViewEvent struct {
	Kind    ViewEventKind `json:"kind"`
	View    ViewState     `json:"view"`
	Version uint64        `json:"version"`
	At      time.Time     `json:"at"`
}
