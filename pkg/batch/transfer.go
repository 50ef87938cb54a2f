// Package batch is the spreadsheet side-channel: template download, export
// of all rows matching the list's filters, and bulk import with a row-level
// outcome report.
package batch

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/httpapi"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

// BlobGateway is the spreadsheet slice of the entity gateway.
type BlobGateway interface {
	DownloadTemplate(ctx context.Context) (string, []byte, error)
	ExportBatch(ctx context.Context, values url.Values) (string, []byte, error)
	ImportBatch(ctx context.Context, filename string, file io.Reader) (*httpapi.ImportReport, error)
}

type Transfer struct {
	gw  BlobGateway
	dir string
	log *logrus.Entry
}

func NewTransfer(gw BlobGateway, downloadDir string, logger *logrus.Logger) *Transfer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Transfer{
		gw:  gw,
		dir: downloadDir,
		log: logger.WithField("component", "batch"),
	}
}

// Export saves the filtered export under the download directory and
// returns the written path. Holds no state across calls.
func (t *Transfer) Export(ctx context.Context, values url.Values) (string, error) {
	filename, data, err := t.gw.ExportBatch(ctx, values)
	if err != nil {
		return "", err
	}
	return t.save(filename, data)
}

// Template saves the entity's import template and returns the written path.
func (t *Transfer) Template(ctx context.Context) (string, error) {
	filename, data, err := t.gw.DownloadTemplate(ctx)
	if err != nil {
		return "", err
	}
	return t.save(filename, data)
}

// Import uploads the file at path. A row-level report comes back as-is
// whether or not rows were rejected; a failed request surfaces as a
// normalized error. Callers branch on which shape they received.
func (t *Transfer) Import(ctx context.Context, path string) (*httpapi.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.NewMessage("cannot open import file: " + err.Error())
	}
	defer func() { _ = f.Close() }()

	report, err := t.gw.ImportBatch(ctx, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	t.log.WithFields(logrus.Fields{
		"imported": report.Imported,
		"failed":   report.Failed,
	}).Info("import finished")
	return report, nil
}

func (t *Transfer) save(filename string, data []byte) (string, error) {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", serrors.NewMessage("cannot create download directory: " + err.Error())
	}
	path := filepath.Join(t.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", serrors.NewMessage("cannot write download: " + err.Error())
	}
	return path, nil
}
