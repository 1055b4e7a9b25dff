package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
)

// ProjectRepository implements persistence.ProjectRepository in memory
// Fund and reward increments are staged as deltas and applied on commit.
type ProjectRepository struct {
	store *Store
	tx    *txState
}

// GetProject retrieves a project by ID, including increments staged by the unit of work
func (r *ProjectRepository) GetProject(_ context.Context, id uint64) (*entity.Project, error) {
	var project entity.Project

	r.store.mu.RLock()
	stored, ok := r.store.projects[id]
	if ok {
		project = *stored
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		r.tx.mu.Lock()
		if staged, isStaged := r.tx.projects[id]; isStaged {
			project, ok = *staged, true
		}
		if ok {
			if amount, hasDelta := r.tx.funds[id]; hasDelta {
				project.Funded = project.Funded.Add(amount)
			}
		}
		r.tx.mu.Unlock()
	}

	if !ok {
		return nil, errs.ErrProjectNotFound
	}
	return &project, nil
}

// GetReward retrieves a reward by ID, including increments staged by the unit of work
func (r *ProjectRepository) GetReward(_ context.Context, id uint64) (*entity.Reward, error) {
	var reward *entity.Reward

	r.store.mu.RLock()
	if stored, ok := r.store.rewards[id]; ok {
		clone := *stored
		reward = &clone
	}
	r.store.mu.RUnlock()

	if r.tx != nil {
		r.tx.mu.Lock()
		if staged, ok := r.tx.rewards[id]; ok {
			clone := *staged
			reward = &clone
		}
		if count, ok := r.tx.distributed[id]; ok && reward != nil {
			reward = distribute(reward, count)
		}
		r.tx.mu.Unlock()
	}

	if reward == nil {
		return nil, errs.ErrRewardNotFound
	}
	return reward, nil
}

// IncreaseFunds adds amount to the funded total of a project
func (r *ProjectRepository) IncreaseFunds(ctx context.Context, projectID uint64, amount decimal.Decimal) error {
	if _, err := r.GetProject(ctx, projectID); err != nil {
		return err
	}

	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		updated := *r.store.projects[projectID]
		updated.Funded = updated.Funded.Add(amount)
		r.store.projects[projectID] = &updated
		return nil
	}

	r.tx.mu.Lock()
	defer r.tx.mu.Unlock()
	r.tx.funds[projectID] = r.tx.funds[projectID].Add(amount)
	return nil
}

// IncreaseRewardDistributed records one more distributed reward
func (r *ProjectRepository) IncreaseRewardDistributed(ctx context.Context, rewardID uint64) error {
	if _, err := r.GetReward(ctx, rewardID); err != nil {
		return err
	}

	if r.tx == nil {
		r.store.mu.Lock()
		defer r.store.mu.Unlock()
		r.store.rewards[rewardID] = distribute(r.store.rewards[rewardID], 1)
		return nil
	}

	r.tx.mu.Lock()
	defer r.tx.mu.Unlock()
	r.tx.distributed[rewardID]++
	return nil
}

// CreateProject stores a project with its rewards
func (r *ProjectRepository) CreateProject(_ context.Context, project *entity.Project, rewards []*entity.Reward) error {
	if project.ID == 0 {
		return errs.ErrInvalidProject
	}
	for _, reward := range rewards {
		if reward.ID == 0 {
			return errs.ErrInvalidReward
		}
		reward.ProjectID = project.ID
	}

	if r.tx != nil {
		r.tx.mu.Lock()
		defer r.tx.mu.Unlock()
		stored := *project
		r.tx.projects[project.ID] = &stored
		for _, reward := range rewards {
			storedReward := *reward
			r.tx.rewards[reward.ID] = &storedReward
		}
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored := *project
	r.store.projects[project.ID] = &stored
	for _, reward := range rewards {
		storedReward := *reward
		r.store.rewards[reward.ID] = &storedReward
	}
	return nil
}
