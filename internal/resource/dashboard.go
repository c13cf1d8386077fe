package resource

import (
	"context"

	"github.com/grafana/grafana-openapi-client-go/models"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
)

// Dashboard is a Grafana dashboard resource, grounded on the original's
// resource.Dashboard (folder attachment, id/version bookkeeping on
// update) and on the teacher's dashboard.go reconciler for call shapes.
type Dashboard struct {
	meta  Meta
	model map[string]any
}

func NewDashboard(grafanaRef, uid string, model map[string]any, folderUID string) *Dashboard {
	return &Dashboard{
		meta:  Meta{Grafana: grafanaRef, UID: uid, Kind: KindDashboard, Folder: folderUID},
		model: StripIgnoredFields(model),
	}
}

func (d *Dashboard) Meta() Meta            { return d.meta }
func (d *Dashboard) Model() map[string]any { return d.model }

func (d *Dashboard) Serialize() map[string]any {
	return map[string]any{
		"kind":    string(KindDashboard),
		"grafana": d.meta.Grafana,
		"uid":     d.meta.UID,
		"model":   d.model,
		"folder":  d.meta.Folder,
	}
}

// DashboardAdapter implements Adapter for dashboards.
type DashboardAdapter struct{}

func (DashboardAdapter) Create(ctx context.Context, grafanaRef, uid string, model map[string]any, folderUID string, providers *provider.Registry) (Resource, error) {
	gp, err := grafanaClient(ctx, grafanaRef, providers)
	if err != nil {
		return nil, err
	}
	client, err := gp.NewClient()
	if err != nil {
		return nil, err
	}
	folderID, err := IDOf(ctx, grafanaRef, folderUID, providers)
	if err != nil {
		return nil, err
	}

	stripped := StripIgnoredFields(model)
	stripped["id"] = nil
	stripped["uid"] = uid
	stripped["version"] = int64(1)

	overwrite := true
	cmd := &models.SaveDashboardCommand{
		Dashboard: stripped,
		FolderID:  folderID,
		Overwrite: overwrite,
	}
	err = withRetry(ctx, func() error {
		_, err := client.Dashboards.PostDashboard(cmd)
		return translateGrafanaError(err)
	})
	if err != nil {
		return nil, err
	}
	return DashboardAdapter{}.Get(ctx, grafanaRef, uid, providers)
}

func (DashboardAdapter) Get(ctx context.Context, grafanaRef, uid string, providers *provider.Registry) (Resource, error) {
	gp, err := grafanaClient(ctx, grafanaRef, providers)
	if err != nil {
		return nil, err
	}
	client, err := gp.NewClient()
	if err != nil {
		return nil, err
	}
	var full *models.DashboardFullWithMeta
	err = withRetry(ctx, func() error {
		resp, err := client.Dashboards.GetDashboardByUID(uid)
		if err != nil {
			return translateGrafanaError(err)
		}
		full = resp.Payload
		return nil
	})
	if err != nil {
		return nil, err
	}

	model, _ := full.Dashboard.(map[string]any)
	var folderUID string
	if full.Meta != nil {
		folderUID, err = uidOfFolderID(ctx, grafanaRef, full.Meta.FolderID, providers)
		if err != nil {
			return nil, err
		}
	}
	return NewDashboard(grafanaRef, uid, model, folderUID), nil
}

func (a DashboardAdapter) Exists(ctx context.Context, grafanaRef, uid string, providers *provider.Registry) (bool, error) {
	_, err := a.Get(ctx, grafanaRef, uid, providers)
	if err == nil {
		return true, nil
	}
	var gerr *gdbterrors.Error
	if gdbterrors.As(err, &gerr) && gerr.Code == gdbterrors.CodeGrafanaResourceNotFound {
		return false, nil
	}
	return false, err
}

func (DashboardAdapter) Update(ctx context.Context, res Resource, model map[string]any, providers *provider.Registry) error {
	meta := res.Meta()
	gp, err := grafanaClient(ctx, meta.Grafana, providers)
	if err != nil {
		return err
	}
	client, err := gp.NewClient()
	if err != nil {
		return err
	}

	var currentVersion int64
	err = withRetry(ctx, func() error {
		resp, err := client.Dashboards.GetDashboardByUID(meta.UID)
		if err != nil {
			return translateGrafanaError(err)
		}
		if d, ok := resp.Payload.Dashboard.(map[string]any); ok {
			if v, ok := d["version"].(float64); ok {
				currentVersion = int64(v)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	folderID, err := IDOf(ctx, meta.Grafana, meta.Folder, providers)
	if err != nil {
		return err
	}

	stripped := StripIgnoredFields(model)
	stripped["id"] = nil
	stripped["uid"] = meta.UID
	stripped["version"] = currentVersion + 1

	overwrite := true
	cmd := &models.SaveDashboardCommand{
		Dashboard: stripped,
		FolderID:  folderID,
		Overwrite: overwrite,
	}
	return withRetry(ctx, func() error {
		_, err := client.Dashboards.PostDashboard(cmd)
		return translateGrafanaError(err)
	})
}

func (DashboardAdapter) Delete(ctx context.Context, res Resource, providers *provider.Registry) error {
	meta := res.Meta()
	gp, err := grafanaClient(ctx, meta.Grafana, providers)
	if err != nil {
		return err
	}
	client, err := gp.NewClient()
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		_, err := client.Dashboards.DeleteDashboardByUID(meta.UID)
		if err != nil {
			translated := translateGrafanaError(err)
			var gerr *gdbterrors.Error
			if gdbterrors.As(translated, &gerr) && gerr.Code == gdbterrors.CodeGrafanaResourceNotFound {
				return nil
			}
			return translated
		}
		return nil
	})
}

func uidOfFolderID(ctx context.Context, grafanaRef string, folderID int64, providers *provider.Registry) (string, error) {
	if folderID == 0 {
		return "", nil
	}
	gp, err := grafanaClient(ctx, grafanaRef, providers)
	if err != nil {
		return "", err
	}
	client, err := gp.NewClient()
	if err != nil {
		return "", err
	}
	var uid string
	err = withRetry(ctx, func() error {
		resp, err := client.Folders.GetFolderByID(folderID)
		if err != nil {
			return translateGrafanaError(err)
		}
		uid = resp.Payload.UID
		return nil
	})
	return uid, err
}
