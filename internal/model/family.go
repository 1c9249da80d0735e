package model

import "fmt"

// ModelFamily identifies the GNN architecture an experiment trains.
type ModelFamily string

const (
	FamilyGCN  ModelFamily = "gcn"
	FamilySAGE ModelFamily = "sage"
	FamilyGAT  ModelFamily = "gat"
)

// familyHops maps each supported family to the number of sampling hops its
// layer stack consumes. The fanout schedule of an experiment must have
// exactly this many entries.
var familyHops = map[ModelFamily]int{
	FamilyGCN:  2,
	FamilySAGE: 3,
	FamilyGAT:  3,
}

// ParseModelFamily validates a user-supplied model identifier.
func ParseModelFamily(s string) (ModelFamily, error) {
	f := ModelFamily(s)
	if _, ok := familyHops[f]; !ok {
		return "", fmt.Errorf("unknown model family %q (supported: gcn, sage, gat)", s)
	}
	return f, nil
}

// Hops returns the number of sampling hops the family expects. Unknown
// families report zero hops, which can never match a valid fanout schedule.
func (f ModelFamily) Hops() int {
	return familyHops[f]
}

// Attentional reports whether the family uses attention heads, in which
// case the num_head hyperparameter is forwarded to the entry point.
func (f ModelFamily) Attentional() bool {
	return f == FamilyGAT
}
