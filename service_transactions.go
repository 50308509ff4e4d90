package loankit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes a function within a database transaction with
// automatic commit/rollback. The callback receives a Service bound to
// the transaction; every operation on it runs inside the transaction.
// If the function returns an error, the transaction is rolled back.
//
// Example:
//
//	err := service.Transaction(ctx, func(tx *loankit.Service) error {
//	    loan, err := tx.Checkout(ctx, userID, bookID)
//	    if err != nil {
//	        return err // This will cause a rollback
//	    }
//	    _, err = tx.Checkout(ctx, userID, otherBookID)
//	    return err
//	})
func (s *Service) Transaction(ctx context.Context, fn func(tx *Service) error) error {
	start := time.Now()
	var err error

	// A nested call runs in a savepoint on the enclosing transaction.
	if tx, ok := s.db.(*dbkit.Tx); ok {
		err = tx.Transaction(ctx, func(inner *dbkit.Tx) error {
			return fn(s.withDB(inner))
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(s.withDB(tx))
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	duration := time.Since(start)
	s.txMonitor.record(duration, err == nil)

	return err
}

// TransactionWithOptions executes a function within a database
// transaction with custom options (isolation level, read-only, ...).
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), func(tx *loankit.Service) error {
//	    _, err := tx.Checkout(ctx, userID, bookID)
//	    return err
//	})
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error {
	start := time.Now()
	var err error

	if tx, ok := s.db.(*dbkit.Tx); ok {
		// Nested transactions use savepoints; options do not apply.
		err = tx.Transaction(ctx, func(inner *dbkit.Tx) error {
			return fn(s.withDB(inner))
		})
	} else if db, ok := s.db.(*dbkit.DBKit); ok {
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(s.withDB(tx))
		})
	} else {
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	duration := time.Since(start)
	s.txMonitor.record(duration, err == nil)

	return err
}

// ReadOnlyTransaction executes a function within a read-only database
// transaction, for multi-query reads that need a consistent snapshot.
//
// Example:
//
//	err := service.ReadOnlyTransaction(ctx, func(tx *loankit.Service) error {
//	    available, err := tx.AvailableCopies(ctx, bookID)
//	    if err != nil {
//	        return err
//	    }
//	    _, err = tx.WaitingList(ctx, bookID)
//	    return err
//	})
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}
