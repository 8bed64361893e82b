package ruleerrors

import (
	"fmt"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrDuplicateChain indicates a chain with the same id already exists.
	ErrDuplicateChain = newRuleError("ErrDuplicateChain")

	// ErrUnknownChain indicates no chain with the given id was created.
	ErrUnknownChain = newRuleError("ErrUnknownChain")

	// ErrUnknownBlock indicates a block hash that has no link in the chain.
	ErrUnknownBlock = newRuleError("ErrUnknownBlock")

	// ErrUnlinkedFinalityTarget indicates an attempt to finalize a block
	// that is unknown or not yet linked to genesis.
	ErrUnlinkedFinalityTarget = newRuleError("ErrUnlinkedFinalityTarget")

	// ErrFinalityRegression indicates an attempt to finalize a block below
	// the last irreversible block.
	ErrFinalityRegression = newRuleError("ErrFinalityRegression")

	// ErrFinalityConflict indicates a finality target that does not descend
	// from the last irreversible block.
	ErrFinalityConflict = newRuleError("ErrFinalityConflict")

	// ErrHeightNotFinalized indicates an index lookup above the last
	// irreversible block height.
	ErrHeightNotFinalized = newRuleError("ErrHeightNotFinalized")

	// ErrDisjointBranches indicates two linked tips whose ancestry never
	// meets. This means the link store is corrupted.
	ErrDisjointBranches = newRuleError("ErrDisjointBranches")

	// ErrUnexpectedHeight indicates a block whose height is not its
	// parent's height plus one.
	ErrUnexpectedHeight = newRuleError("ErrUnexpectedHeight")

	// ErrBestChainRegression indicates an attempt to move the best chain to
	// a lower height.
	ErrBestChainRegression = newRuleError("ErrBestChainRegression")

	// ErrInvalidExecutionStatus indicates an execution status transition
	// other than from None to a final status.
	ErrInvalidExecutionStatus = newRuleError("ErrInvalidExecutionStatus")

	// ErrIrreversibleBranchRemoval indicates an attempt to remove a branch
	// starting at or below the last irreversible block.
	ErrIrreversibleBranchRemoval = newRuleError("ErrIrreversibleBranchRemoval")
)

// RuleError identifies a rule violation. It is used to indicate that an
// operation on a chain was refused because it would break one of the chain's
// invariants. The caller can use errors.Is or errors.As to determine if a
// failure was specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Is reports whether target is the plain RuleError of the same kind, so that
// errors.Is matches detailed rule errors against the sentinels above
func (e RuleError) Is(target error) bool {
	targetRuleError, ok := target.(RuleError)
	return ok && targetRuleError.inner == nil && targetRuleError.message == e.message
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// ErrConflictingFinalizedBlock carries the details of a finality conflict:
// the block found at the finalized height on the target's branch differs
// from the block that was finalized there.
type ErrConflictingFinalizedBlock struct {
	Height         uint64
	FinalizedBlock *externalapi.DomainHash
	FoundBlock     *externalapi.DomainHash
}

func (e ErrConflictingFinalizedBlock) Error() string {
	return fmt.Sprintf("block %s at finalized height %d conflicts with finalized block %s",
		e.FoundBlock, e.Height, e.FinalizedBlock)
}

// NewErrConflictingFinalizedBlock creates a new ErrConflictingFinalizedBlock
// error wrapped in a RuleError
func NewErrConflictingFinalizedBlock(height uint64, finalizedBlock, foundBlock *externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message: ErrFinalityConflict.message,
		inner:   ErrConflictingFinalizedBlock{height, finalizedBlock, foundBlock},
	})
}

// IsRuleError returns whether err is, or wraps, a RuleError
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}
