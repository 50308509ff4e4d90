package loankit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// StatisticsService provides read-only management aggregates as an
// extension to Service.
type StatisticsService struct {
	*Service
}

// NewStatisticsService creates a new statistics service extension.
func NewStatisticsService(service *Service) *StatisticsService {
	return &StatisticsService{Service: service}
}

// Overview returns the management dashboard aggregate. Reporting only,
// never a control input for the loan workflow. Admin or librarian only.
func (ss *StatisticsService) Overview(ctx context.Context) (*LibraryOverview, error) {
	if _, err := requireRole(ctx, RoleAdmin, RoleLibrarian); err != nil {
		return nil, err
	}

	var overview LibraryOverview

	err := ss.ReadOnlyTransaction(ctx, func(tx *Service) error {
		err := dbkit.WithErr1(
			tx.db.NewRaw(
				"SELECT count(*), coalesce(sum(total_copies), 0), coalesce(sum(available_copies), 0) FROM books").
				Scan(ctx, &overview.TotalBooks, &overview.TotalCopies, &overview.AvailableCopies),
			"StatsBooks").Err()
		if err != nil {
			return err
		}

		overview.ActiveUsers, err = tx.db.NewSelect().
			Model((*User)(nil)).
			Where("active").
			Count(ctx)
		if err = dbkit.WithErr1(err, "StatsUsers").Err(); err != nil {
			return err
		}

		overview.ActiveLoans, err = tx.db.NewSelect().
			Model((*Loan)(nil)).
			Where("return_date IS NULL").
			Count(ctx)
		if err = dbkit.WithErr1(err, "StatsLoans").Err(); err != nil {
			return err
		}

		overview.OverdueLoans, err = tx.db.NewSelect().
			Model((*Loan)(nil)).
			Where("return_date IS NULL AND due_date < ?", tx.now()).
			Count(ctx)
		if err = dbkit.WithErr1(err, "StatsOverdue").Err(); err != nil {
			return err
		}

		overview.WaitingOrders, err = tx.db.NewSelect().
			Model((*BookOrder)(nil)).
			Where("status = ?", OrderWaiting).
			Count(ctx)
		return dbkit.WithErr1(err, "StatsOrders").Err()
	})
	if err != nil {
		return nil, err
	}

	return &overview, nil
}
