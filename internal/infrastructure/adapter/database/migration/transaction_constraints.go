package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
)

var transactionConstraints = []struct {
	name  string
	table string
	check string
}{
	{"chk_transactions_txn_status", "transactions", "txn_status IN ('pending', 'completed', 'failed')"},
	{"chk_transactions_txn_amount", "transactions", "txn_amount >= 0"},
	{"chk_projects_funded", "projects", "funded >= 0"},
}

// addTransactionConstraints adds the check constraints guarding transaction rows, skipping existing ones
func addTransactionConstraints(_ context.Context, tx *gorm.DB, logger coreport.Logger) error {
	var statements []namedStatement
	for _, constraint := range transactionConstraints {
		exists, err := constraintExists(tx, constraint.name)
		if err != nil {
			return err
		}
		if exists {
			logger.Debug("Check constraint already present", map[string]any{"constraint": constraint.name})
			continue
		}
		statements = append(statements, namedStatement{
			name: constraint.name,
			sql:  "ALTER TABLE " + constraint.table + " ADD CONSTRAINT " + constraint.name + " CHECK (" + constraint.check + ")",
		})
	}
	return execAll(tx, logger, statements)
}

func constraintExists(tx *gorm.DB, name string) (bool, error) {
	var count int64
	err := tx.Raw(`
		SELECT COUNT(*)
		FROM information_schema.table_constraints
		WHERE constraint_name = ?
	`, name).Scan(&count).Error
	return count > 0, err
}
