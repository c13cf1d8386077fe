package resource

import (
	"context"

	"github.com/grafana/grafana-openapi-client-go/client/folders"
	"github.com/grafana/grafana-openapi-client-go/models"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
	"github.com/argannor/gdbt/internal/provider"
)

// Folder is a Grafana folder resource, grounded on the original's
// resource.Folder and on the teacher's folder.go reconciler for the
// create/get/update/delete call shapes.
type Folder struct {
	meta  Meta
	model map[string]any
}

func NewFolder(grafanaRef, uid string, model map[string]any) *Folder {
	return &Folder{meta: Meta{Grafana: grafanaRef, UID: uid, Kind: KindFolder}, model: StripIgnoredFields(model)}
}

func (f *Folder) Meta() Meta             { return f.meta }
func (f *Folder) Model() map[string]any  { return f.model }

func (f *Folder) Serialize() map[string]any {
	return map[string]any{
		"kind":    string(KindFolder),
		"grafana": f.meta.Grafana,
		"uid":     f.meta.UID,
		"model":   f.model,
	}
}

// FolderAdapter implements Adapter for folders.
type FolderAdapter struct{}

func (FolderAdapter) Create(ctx context.Context, grafanaRef, uid string, model map[string]any, _ string, providers *provider.Registry) (Resource, error) {
	gp, err := grafanaClient(ctx, grafanaRef, providers)
	if err != nil {
		return nil, err
	}
	client, err := gp.NewClient()
	if err != nil {
		return nil, err
	}
	stripped := StripIgnoredFields(model)
	title, ok := stripped["title"].(string)
	if !ok || title == "" {
		return nil, gdbterrors.DataError("folder model missing 'title' key")
	}

	err = withRetry(ctx, func() error {
		_, err := client.Folders.CreateFolder(&models.CreateFolderCommand{Title: title, UID: uid})
		if err != nil && !isNotFoundFolderCreate(err) {
			return translateGrafanaError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FolderAdapter{}.Get(ctx, grafanaRef, uid, providers)
}

func (FolderAdapter) Get(ctx context.Context, grafanaRef, uid string, providers *provider.Registry) (Resource, error) {
	gp, err := grafanaClient(ctx, grafanaRef, providers)
	if err != nil {
		return nil, err
	}
	client, err := gp.NewClient()
	if err != nil {
		return nil, err
	}
	var folder *models.Folder
	err = withRetry(ctx, func() error {
		resp, err := client.Folders.GetFolderByUID(uid)
		if err != nil {
			return translateGrafanaError(err)
		}
		folder = resp.Payload
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewFolder(grafanaRef, uid, map[string]any{"title": folder.Title}), nil
}

func (a FolderAdapter) Exists(ctx context.Context, grafanaRef, uid string, providers *provider.Registry) (bool, error) {
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

func (FolderAdapter) Update(ctx context.Context, res Resource, model map[string]any, providers *provider.Registry) error {
	meta := res.Meta()
	gp, err := grafanaClient(ctx, meta.Grafana, providers)
	if err != nil {
		return err
	}
	client, err := gp.NewClient()
	if err != nil {
		return err
	}
	stripped := StripIgnoredFields(model)
	title, ok := stripped["title"].(string)
	if !ok || title == "" {
		return gdbterrors.DataError("folder model missing 'title' key")
	}
	overwrite := true
	return withRetry(ctx, func() error {
		_, err := client.Folders.UpdateFolder(meta.UID, &models.UpdateFolderCommand{Title: title, Overwrite: &overwrite})
		return translateGrafanaError(err)
	})
}

func (FolderAdapter) Delete(ctx context.Context, res Resource, providers *provider.Registry) error {
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
		_, err := client.Folders.DeleteFolder(folders.NewDeleteFolderParams().WithFolderUID(meta.UID))
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

// IDOf fetches the numeric folder id Grafana needs when attaching a
// dashboard to its folder, matching the original's Folder.id.
func IDOf(ctx context.Context, grafanaRef, uid string, providers *provider.Registry) (int64, error) {
	gp, err := grafanaClient(ctx, grafanaRef, providers)
	if err != nil {
		return 0, err
	}
	client, err := gp.NewClient()
	if err != nil {
		return 0, err
	}
	var id int64
	err = withRetry(ctx, func() error {
		resp, err := client.Folders.GetFolderByUID(uid)
		if err != nil {
			return translateGrafanaError(err)
		}
		id = resp.Payload.ID
		return nil
	})
	return id, err
}
