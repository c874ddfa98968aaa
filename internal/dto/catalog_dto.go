package dto

import "github.com/noah-isme/gema-curriculum-api/internal/models"

// CatalogModuleRequest describes one catalog module to import.
type CatalogModuleRequest struct {
	ModuleID string `json:"module_id" validate:"required,max=120"`
	CourseID string `json:"course_id" validate:"required,max=120"`
	Title    string `json:"title" validate:"required,max=255"`
	Sequence int    `json:"sequence" validate:"gte=1"`
	IsFirst  bool   `json:"is_first"`
}

// CatalogImportRequest is a batch of catalog modules.
type CatalogImportRequest struct {
	Modules []CatalogModuleRequest `json:"modules" validate:"required,min=1,dive"`
}

// CatalogImportResponse reports an import run.
type CatalogImportResponse struct {
	Affected int64    `json:"affected"`
	Courses  []string `json:"courses"`
}

// ToModel converts the request into a catalog row.
func (r CatalogModuleRequest) ToModel() models.Module {
	return models.Module{
		ModuleID: r.ModuleID,
		CourseID: r.CourseID,
		Title:    r.Title,
		Sequence: r.Sequence,
		IsFirst:  r.IsFirst,
	}
}
