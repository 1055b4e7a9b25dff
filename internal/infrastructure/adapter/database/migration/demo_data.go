package migration

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/entity"
	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
	"github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/port/persistence"
)

// DemoProjectID is the id of the project seeded for local development
const DemoProjectID uint64 = 1

// demoProject returns the published project and rewards available in development
func demoProject() (*entity.Project, []*entity.Reward) {
	project := &entity.Project{
		ID:        DemoProjectID,
		UserID:    1,
		Title:     "Solar Kiosk",
		Slug:      "solar-kiosk",
		CatSlug:   "energy",
		Goal:      decimal.RequireFromString("5000.00"),
		Published: true,
	}
	rewards := []*entity.Reward{
		{ID: 1, Title: "Thank you card", Amount: decimal.RequireFromString("10.00"), Published: true},
		{ID: 2, Title: "Kiosk visit", Amount: decimal.RequireFromString("100.00"), Number: 20, Available: 20, Published: true},
	}
	return project, rewards
}

// SeedDemoData creates the demo project unless it already exists
func SeedDemoData(ctx context.Context, projects persistence.ProjectRepository) error {
	_, err := projects.GetProject(ctx, DemoProjectID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrProjectNotFound) {
		return err
	}

	project, rewards := demoProject()
	return projects.CreateProject(ctx, project, rewards)
}
