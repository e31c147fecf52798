package interfaces

import (
	"context"

	"confluence-lifecycle/internal/models"
)

// ConfluenceClient is the REST boundary to the Confluence instance. The
// walker and report publisher depend on this interface so they can be
// tested against a fake.
type ConfluenceClient interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	GetSpacePages(ctx context.Context, space string, start, limit int) (*models.PageList, error)
	GetPageHistory(ctx context.Context, pageID string) (*models.PageHistory, error)
	GetPageLabels(ctx context.Context, pageID string) ([]models.Label, error)
	AddPageLabel(ctx context.Context, pageID, label string) error
	RemovePageLabel(ctx context.Context, pageID, label string) error
	UpdatePage(ctx context.Context, pageID, title, body string) error
}

// RunStore persists completed runs so consecutive runs can be compared.
type RunStore interface {
	SaveRun(run *models.RunRecord) error
	LastRun(space string) (*models.RunRecord, error)
	LoadRuns(space string) ([]*models.RunRecord, error)
	Close() error
}
