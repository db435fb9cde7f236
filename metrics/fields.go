package metrics

// Attribute keys shared by the exported instruments.
const (
	AttrMethod = "method"
	AttrRoute  = "route"
	AttrStatus = "status"
	AttrPhase  = "phase_code"
	AttrState  = "match_status"
)
