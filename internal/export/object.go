package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/storage"
)

// ObjectExporter uploads audits to an object store bucket and hands back
// a presigned download link.
type ObjectExporter struct {
	store   storage.ObjectStore
	linkTTL time.Duration
}

func NewObjectExporter(store storage.ObjectStore, linkTTL time.Duration) *ObjectExporter {
	if linkTTL <= 0 {
		linkTTL = 24 * time.Hour
	}
	return &ObjectExporter{store: store, linkTTL: linkTTL}
}

func (e *ObjectExporter) Name() string { return "minio" }

func (e *ObjectExporter) Export(ctx context.Context, auditID, content string) (ArtifactLocation, error) {
	if err := checkID(auditID); err != nil {
		return ArtifactLocation{}, err
	}
	key := ObjectKey(auditID)
	if err := e.store.Put(ctx, key, strings.NewReader(content), int64(len(content)), "text/markdown; charset=utf-8"); err != nil {
		return ArtifactLocation{}, fmt.Errorf("%w: upload %s: %v", ErrExportFailed, key, err)
	}
	url, err := e.store.PresignedURL(ctx, key, e.linkTTL)
	if err != nil {
		return ArtifactLocation{}, fmt.Errorf("%w: presign %s: %v", ErrExportFailed, key, err)
	}
	return ArtifactLocation{Exporter: e.Name(), Key: key, URL: url}, nil
}
