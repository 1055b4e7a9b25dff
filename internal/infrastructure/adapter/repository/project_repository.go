package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	coreport "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/core"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/infrastructure/adapter/model"
)

// ProjectRepository implements ProjectRepository interface using GORM
type ProjectRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewProjectRepository creates a new ProjectRepository instance
func NewProjectRepository(db *gorm.DB, logger coreport.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

func projectToEntity(m *model.Project) *entity.Project {
	return &entity.Project{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Slug:      m.Slug,
		CatSlug:   m.CatSlug,
		Goal:      m.Goal,
		Funded:    m.Funded,
		Published: m.Published,
	}
}

func rewardToEntity(m *model.Reward) *entity.Reward {
	return &entity.Reward{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Title:       m.Title,
		Amount:      m.Amount,
		Number:      m.Number,
		Distributed: m.Distributed,
		Available:   m.Available,
		Published:   m.Published,
	}
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id uint64) (*entity.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrProjectNotFound
		}
		r.logger.Error("Failed to get project", map[string]any{
			"project_id": id,
			"error":      err.Error(),
		})
		return nil, databaseError(err)
	}
	return projectToEntity(&project), nil
}

// GetReward retrieves a reward by ID
func (r *ProjectRepository) GetReward(ctx context.Context, id uint64) (*entity.Reward, error) {
	var reward model.Reward
	if err := r.db.WithContext(ctx).First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrRewardNotFound
		}
		r.logger.Error("Failed to get reward", map[string]any{
			"reward_id": id,
			"error":     err.Error(),
		})
		return nil, databaseError(err)
	}
	return rewardToEntity(&reward), nil
}

// IncreaseFunds adds amount to the funded total in a single UPDATE
func (r *ProjectRepository) IncreaseFunds(ctx context.Context, projectID uint64, amount decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", projectID).
		Update("funded", gorm.Expr("funded + ?", amount))

	if result.Error != nil {
		r.logger.Error("Failed to increase project funds", map[string]any{
			"project_id": projectID,
			"amount":     amount.StringFixed(2),
			"error":      result.Error.Error(),
		})
		return databaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrProjectNotFound
	}

	r.logger.Debug("Project funds increased", map[string]any{
		"project_id": projectID,
		"amount":     amount.StringFixed(2),
	})
	return nil
}

// IncreaseRewardDistributed records one more distributed reward, limited rewards lose one unit of stock
func (r *ProjectRepository) IncreaseRewardDistributed(ctx context.Context, rewardID uint64) error {
	result := r.db.WithContext(ctx).Model(&model.Reward{}).
		Where("id = ?", rewardID).
		Updates(map[string]interface{}{
			"distributed": gorm.Expr("distributed + 1"),
			"available":   gorm.Expr("CASE WHEN number > 0 AND available > 0 THEN available - 1 ELSE available END"),
		})

	if result.Error != nil {
		r.logger.Error("Failed to increase reward distribution", map[string]any{
			"reward_id": rewardID,
			"error":     result.Error.Error(),
		})
		return databaseError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrRewardNotFound
	}
	return nil
}

// CreateProject stores a project with its rewards
func (r *ProjectRepository) CreateProject(ctx context.Context, project *entity.Project, rewards []*entity.Reward) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectModel := model.Project{
			ID:        project.ID,
			UserID:    project.UserID,
			Title:     project.Title,
			Slug:      project.Slug,
			CatSlug:   project.CatSlug,
			Goal:      project.Goal,
			Funded:    project.Funded,
			Published: project.Published,
		}
		if err := tx.Create(&projectModel).Error; err != nil {
			return databaseError(err)
		}
		project.ID = projectModel.ID

		for _, reward := range rewards {
			rewardModel := model.Reward{
				ID:          reward.ID,
				ProjectID:   project.ID,
				Title:       reward.Title,
				Amount:      reward.Amount,
				Number:      reward.Number,
				Distributed: reward.Distributed,
				Available:   reward.Available,
				Published:   reward.Published,
			}
			if err := tx.Create(&rewardModel).Error; err != nil {
				return databaseError(err)
			}
			reward.ID = rewardModel.ID
			reward.ProjectID = project.ID
		}
		return nil
	})
}
