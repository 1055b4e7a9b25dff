package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

var reportingIndexes = []namedStatement{
	{"idx_transactions_project_status", `CREATE INDEX IF NOT EXISTS idx_transactions_project_status ON transactions (project_id, txn_status)`},
	{"idx_transactions_completed", `CREATE INDEX IF NOT EXISTS idx_transactions_completed
		ON transactions (project_id, txn_date)
		WHERE txn_status = 'completed'`},
	{"idx_transactions_created_at_brin", `CREATE INDEX IF NOT EXISTS idx_transactions_created_at_brin
		ON transactions USING BRIN (created_at)
		WITH (pages_per_range = 32)`},
	{"idx_rewards_project_published", `CREATE INDEX IF NOT EXISTS idx_rewards_project_published ON rewards (project_id) WHERE published`},
}

// fillfactors leave free space so status updates stay on the same page
var fillfactors = []namedStatement{
	{"transactions_fillfactor", `ALTER TABLE transactions SET (fillfactor = 90)`},
	{"payment_sessions_fillfactor", `ALTER TABLE payment_sessions SET (fillfactor = 80)`},
}

// createReportingIndexes adds the partial and BRIN indexes used by backer and funding reports
func createReportingIndexes(_ context.Context, tx *gorm.DB, logger coreport.Logger) error {
	if err := execAll(tx, logger, reportingIndexes); err != nil {
		return err
	}
	return execAll(tx, logger, fillfactors)
}
