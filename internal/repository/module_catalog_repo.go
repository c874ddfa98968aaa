package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-curriculum-api/internal/activation"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
)

// ModuleCatalogRepository reads the static module catalog.
type ModuleCatalogRepository interface {
	activation.Catalog
	List(ctx context.Context, courseID string) ([]models.Module, error)
	GetByModuleID(ctx context.Context, moduleID string) (models.Module, error)
	CountPerCourse(ctx context.Context, courseID string) (map[string]int64, error)
	Entries(ctx context.Context) ([]activation.CatalogEntry, error)
	UpsertBatch(ctx context.Context, modules []models.Module) (int64, error)
}

type moduleCatalogRepository struct {
	db *gorm.DB
}

// NewModuleCatalogRepository constructs the catalog repository.
func NewModuleCatalogRepository(db *gorm.DB) ModuleCatalogRepository {
	return &moduleCatalogRepository{db: db}
}

func (r *moduleCatalogRepository) List(ctx context.Context, courseID string) ([]models.Module, error) {
	query := r.db.WithContext(ctx).Model(&models.Module{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	var modules []models.Module
	if err := query.Order("course_id ASC, sequence ASC, module_id ASC").Find(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *moduleCatalogRepository) GetByModuleID(ctx context.Context, moduleID string) (models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).Where("module_id = ?", moduleID).First(&module).Error; err != nil {
		return models.Module{}, err
	}
	return module, nil
}

// CountPerCourse returns the number of catalog modules per course. A blank
// course id counts every course.
func (r *moduleCatalogRepository) CountPerCourse(ctx context.Context, courseID string) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Module{})
	if courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}

	var rows []struct {
		CourseID string
		Modules  int64
	}
	if err := query.Select("course_id, COUNT(*) AS modules").Group("course_id").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Modules
	}
	return counts, nil
}

func (r *moduleCatalogRepository) Lookup(ctx context.Context, moduleID string) (activation.CatalogEntry, bool, error) {
	module, err := r.GetByModuleID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return activation.CatalogEntry{}, false, nil
		}
		return activation.CatalogEntry{}, false, err
	}
	return CatalogEntry(module), true, nil
}

func (r *moduleCatalogRepository) Entries(ctx context.Context) ([]activation.CatalogEntry, error) {
	modules, err := r.List(ctx, "")
	if err != nil {
		return nil, err
	}
	entries := make([]activation.CatalogEntry, 0, len(modules))
	for _, module := range modules {
		entries = append(entries, CatalogEntry(module))
	}
	return entries, nil
}

// UpsertBatch inserts catalog modules, updating the descriptive columns of
// modules that already exist. The module id is never rewritten.
func (r *moduleCatalogRepository) UpsertBatch(ctx context.Context, modules []models.Module) (int64, error) {
	if len(modules) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "module_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"course_id", "title", "sequence", "is_first", "updated_at"}),
	})

	result := tx.Create(&modules)
	return result.RowsAffected, result.Error
}

// CatalogEntry converts a catalog row to its activation view.
func CatalogEntry(module models.Module) activation.CatalogEntry {
	return activation.CatalogEntry{
		ModuleID: module.ModuleID,
		CourseID: module.CourseID,
		Title:    module.Title,
		IsFirst:  module.IsFirst,
	}
}
