package dummydb

import (
	"context"

	"github.com/trezcool/mahudhurio/core/maintenance"
)

type maintenanceRepository struct {
	db *maintenanceTable
}

var _ maintenance.Repository = (*maintenanceRepository)(nil) // interface compliance check

func NewMaintenanceRepository(db *DB) maintenance.Repository {
	return &maintenanceRepository{db: db.maintenance}
}

func (repo *maintenanceRepository) GetSettings(_ context.Context) (maintenance.Window, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.settings == nil {
		return maintenance.Window{}, maintenance.ErrNotFound
	}
	return *repo.db.settings, nil
}

func (repo *maintenanceRepository) SaveSettings(_ context.Context, w maintenance.Window) (maintenance.Window, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.settings = &w
	return w, nil
}
