package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
)

// ProjectRepository defines the project and reward operations used by payments
type ProjectRepository interface {
	// GetProject retrieves a project by ID
	//
	// Possible errors:
	// - ErrProjectNotFound: If the project doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetProject(ctx context.Context, id uint64) (*entity.Project, error)

	// GetReward retrieves a reward by ID
	//
	// Possible errors:
	// - ErrRewardNotFound: If the reward doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetReward(ctx context.Context, id uint64) (*entity.Reward, error)

	// IncreaseFunds atomically adds amount to the funded total of a project
	//
	// Possible errors:
	// - ErrProjectNotFound: If the project doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	IncreaseFunds(ctx context.Context, projectID uint64, amount decimal.Decimal) error

	// IncreaseRewardDistributed atomically records one more distributed reward
	// Limited rewards also lose one unit of available stock.
	//
	// Possible errors:
	// - ErrRewardNotFound: If the reward doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	IncreaseRewardDistributed(ctx context.Context, rewardID uint64) error

	// CreateProject stores a project with its rewards, used for seeding
	CreateProject(ctx context.Context, project *entity.Project, rewards []*entity.Reward) error
}
