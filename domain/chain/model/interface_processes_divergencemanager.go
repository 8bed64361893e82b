package model

import "github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"

// DivergenceManager finds where two branches of the block-link graph part
type DivergenceManager interface {
	ComputeDivergencePath(stagingArea *StagingArea, tipA, tipB *externalapi.DomainHash) (*externalapi.DivergencePath, error)
}
