package database

// Transaction defines the interface of a generic chainkeeper database
// transaction.
//
// Note: Transactions provide data consistency over the state of
// the database as it was when the transaction started. Writes made
// inside a transaction are not visible to reads made through the same
// transaction; they become visible to everyone once Commit returns.
//
// Note: A transaction must be closed by calling either Commit or
// Rollback, otherwise its resources are never released.
type Transaction interface {
	DataAccessor

	// Rollback rolls back whatever changes were made to the
	// database within this transaction.
	Rollback() error

	// Commit commits whatever changes were made to the database
	// within this transaction.
	Commit() error

	// RollbackUnlessClosed rolls back changes that were made to
	// the database within the transaction, unless the transaction
	// had already been closed using either Rollback or Commit.
	RollbackUnlessClosed() error
}
