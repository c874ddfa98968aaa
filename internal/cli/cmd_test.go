package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-curriculum-api/internal/database"
	"github.com/noah-isme/gema-curriculum-api/internal/models"
	"github.com/noah-isme/gema-curriculum-api/internal/repository"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
)

// testApp wires an App backed by an in-memory database seeded with a small catalog.
func testApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Create(&[]models.Module{
		{ModuleID: "web-intro", CourseID: "web", Title: "Intro to the Web", Sequence: 1, IsFirst: true},
		{ModuleID: "web-html", CourseID: "web", Title: "HTML Basics", Sequence: 2},
		{ModuleID: "go-intro", CourseID: "go", Title: "Hello Go", Sequence: 1, IsFirst: true},
	}).Error)

	logger := zerolog.Nop()
	store := repository.NewModuleActivationRepository(db)
	catalog := repository.NewModuleCatalogRepository(db)

	return &App{
		Activations:  service.NewModuleActivationService(store, catalog, nil, service.ModuleActivationOptions{}, logger),
		Provisioning: service.NewProvisioningService(store, catalog, nil, nil, false, "", logger),
		Catalog:      service.NewCatalogService(catalog, nil, nil, nil, logger),
	}, db
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProvisionCommandSeedsCatalogOnce(t *testing.T) {
	app, db := testApp(t)

	out, err := execute(t, app, "provision")
	require.NoError(t, err)
	require.Contains(t, out, "3 created, 0 skipped")

	var count int64
	require.NoError(t, db.Model(&models.ModuleActivation{}).Count(&count).Error)
	require.EqualValues(t, 3, count)

	out, err = execute(t, app, "provision")
	require.NoError(t, err)
	require.Contains(t, out, "0 created, 3 skipped")
}

func TestStatusCommandFiltersByCourse(t *testing.T) {
	app, _ := testApp(t)

	out, err := execute(t, app, "status", "--course", "web")
	require.NoError(t, err)
	require.Contains(t, out, "MODULE")
	require.Contains(t, out, "web-intro")
	require.Contains(t, out, "web-html")
	require.NotContains(t, out, "go-intro")
	require.Contains(t, out, "active")
	require.Contains(t, out, "inactive")
}

func TestStatusCommandUnknownCourse(t *testing.T) {
	app, _ := testApp(t)

	out, err := execute(t, app, "status", "--course", "rust")
	require.NoError(t, err)
	require.Contains(t, out, "No modules found.")
}

func TestCommandsRequireServices(t *testing.T) {
	_, err := execute(t, &App{}, "provision")
	require.ErrorContains(t, err, "provisioning service is not configured")

	_, err = execute(t, &App{}, "status")
	require.ErrorContains(t, err, "module activation service is not configured")
}

func TestCatalogImportCommand(t *testing.T) {
	app, db := testApp(t)

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"modules": [
		{"module_id": "web-css", "course_id": "web", "title": "Styling with CSS", "sequence": 3},
		{"module_id": "web-html", "course_id": "web", "title": "HTML in Depth", "sequence": 2}
	]}`), 0o600))

	out, err := execute(t, app, "catalog", "import", path)
	require.NoError(t, err)
	require.Contains(t, out, "2 modules across web")

	var html models.Module
	require.NoError(t, db.Where("module_id = ?", "web-html").First(&html).Error)
	require.Equal(t, "HTML in Depth", html.Title)

	out, err = execute(t, app, "provision")
	require.NoError(t, err)
	require.Contains(t, out, "4 created, 0 skipped")
}

func TestCatalogImportCommandRejectsBadFile(t *testing.T) {
	app, _ := testApp(t)

	_, err := execute(t, app, "catalog", "import", filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "reading catalog file")

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"modules": [`), 0o600))
	_, err = execute(t, app, "catalog", "import", path)
	require.ErrorContains(t, err, "parsing catalog file")
}

func TestRenderTableAlignsColumns(t *testing.T) {
	table := RenderTable([]string{"A", "LONG"}, [][]string{{"xyz", "1"}})
	require.Contains(t, table, "A    LONG")
	require.Contains(t, table, "xyz  1")
}
