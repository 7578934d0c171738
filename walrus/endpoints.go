package walrus

// EndpointStrategy yields the candidate endpoints for one request, in the
// order they should be tried. Fallback walks the list once; there is no
// per-endpoint retry.
type EndpointStrategy interface {
	Candidates() []string
}

// OrderedEndpoints tries endpoints in their configured order.
type OrderedEndpoints []string

func (o OrderedEndpoints) Candidates() []string {
	return o
}
