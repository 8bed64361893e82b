package externalapi

// DivergencePath describes how two linked tips relate: the blocks after
// their common ancestor that only one side contains. Both lists run from
// the ancestor's child to the respective tip.
type DivergencePath struct {
	CommonAncestor *DomainHash
	OnlyInA        []*DomainHash
	OnlyInB        []*DomainHash
}
