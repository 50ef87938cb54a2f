package batch

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyashkore/tms-console/pkg/httpapi"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

type fakeBlobGateway struct {
	exportValues url.Values
	importName   string
	importBody   []byte
	report       *httpapi.ImportReport
	importErr    error
}

func (f *fakeBlobGateway) DownloadTemplate(context.Context) (string, []byte, error) {
	return "company_template.xlsx", []byte("template-bytes"), nil
}

func (f *fakeBlobGateway) ExportBatch(_ context.Context, values url.Values) (string, []byte, error) {
	f.exportValues = values
	return "companies.xlsx", []byte("export-bytes"), nil
}

func (f *fakeBlobGateway) ImportBatch(_ context.Context, filename string, file io.Reader) (*httpapi.ImportReport, error) {
	f.importName = filename
	f.importBody, _ = io.ReadAll(file)
	return f.report, f.importErr
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestTransferExport_WritesToDownloadDir(t *testing.T) {
	gw := &fakeBlobGateway{}
	dir := filepath.Join(t.TempDir(), "downloads")
	tr := NewTransfer(gw, dir, quietLogger())

	values := url.Values{"city": {"Pune"}}
	path, err := tr.Export(context.Background(), values)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "companies.xlsx"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("export-bytes"), data)
	assert.Equal(t, values, gw.exportValues)
}

func TestTransferTemplate(t *testing.T) {
	gw := &fakeBlobGateway{}
	tr := NewTransfer(gw, t.TempDir(), quietLogger())

	path, err := tr.Template(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "company_template.xlsx", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("template-bytes"), data)
}

func TestTransferImport_PassesReportThrough(t *testing.T) {
	gw := &fakeBlobGateway{report: &httpapi.ImportReport{
		Imported: 2,
		Failed:   1,
		Errors:   []httpapi.RowError{{Row: 3, Message: "code is required"}},
	}}
	tr := NewTransfer(gw, t.TempDir(), quietLogger())
	path := filepath.Join(t.TempDir(), "upload.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("sheet-bytes"), 0o644))

	report, err := tr.Import(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, gw.report, report)
	assert.Equal(t, "upload.xlsx", gw.importName)
	assert.Equal(t, []byte("sheet-bytes"), gw.importBody)
}

func TestTransferImport_MissingFile(t *testing.T) {
	tr := NewTransfer(&fakeBlobGateway{}, t.TempDir(), quietLogger())

	_, err := tr.Import(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))

	require.Error(t, err)
	assert.Equal(t, serrors.KindMessage, serrors.From(err).Kind)
}
