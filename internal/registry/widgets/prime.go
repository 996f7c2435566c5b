package widgets

import (
	"context"

	widgetsrepo "github.com/faciam-dev/gridbi/internal/repository/widgets"
	"github.com/faciam-dev/gridbi/internal/util"
)

// Store is the widget persistence the catalog reads from.
type Store interface {
	Get(ctx context.Context, tenant, id string) (widgetsrepo.Row, error)
	List(ctx context.Context, f widgetsrepo.Filter) ([]widgetsrepo.Row, int, error)
}

// Prime loads every stored widget into the catalog. Called once at
// startup; later changes arrive through notifications.
func Prime(ctx context.Context, reg Registry, store Store) error {
	rows, _, err := store.List(ctx, widgetsrepo.Filter{})
	if err != nil {
		return err
	}
	ups := make([]Summary, 0, len(rows))
	for _, r := range rows {
		ups = append(ups, FromRow(r))
	}
	_, _, err = reg.ApplyDiff(ctx, ups, nil)
	return err
}

// FromRow projects a stored widget onto its catalog summary.
func FromRow(r widgetsrepo.Row) Summary {
	return Summary{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Type:        r.Type,
		Description: util.Deref(r.Description),
		UpdatedAt:   r.UpdatedAt,
	}
}
