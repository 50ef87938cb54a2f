// Package gateway is the per-entity REST adapter. One Client per entity
// schema; all of them are structurally identical, the schema supplies the
// resource path and record allocation. Every failure leaving this package
// is a *serrors.Normalized; callers never see raw transport errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/batch"
	"github.com/suyashkore/tms-console/pkg/configuration"
	"github.com/suyashkore/tms-console/pkg/httpapi"
	"github.com/suyashkore/tms-console/pkg/schema"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

type Options struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

type Client struct {
	schema schema.Schema
	base   string
	token  string
	http   *http.Client
	log    *logrus.Entry
}

func New(sch schema.Schema, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		schema: sch,
		base:   strings.TrimRight(opts.BaseURL, "/"),
		token:  opts.AuthToken,
		http:   hc,
		log:    logger.WithField("resource", sch.Resource),
	}
}

// FromConfiguration builds a client wired to the configured backend.
func FromConfiguration(cfg *configuration.Configuration, sch schema.Schema) *Client {
	return New(sch, Options{
		BaseURL:    cfg.Backend.BaseURL,
		AuthToken:  cfg.Backend.AuthToken,
		HTTPClient: &http.Client{Timeout: cfg.Backend.RequestTimeout},
		Logger:     cfg.Logger(),
	})
}

func (c *Client) Schema() schema.Schema { return c.schema }

// List fetches one page of records with the composed query.
func (c *Client) List(ctx context.Context, values url.Values) ([]schema.Record, int64, error) {
	data, err := c.doJSON(ctx, http.MethodGet, c.resourcePath(""), values, nil)
	if err != nil {
		return nil, 0, serrors.Translate(err)
	}
	var body httpapi.ListBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, 0, serrors.NewMessage("malformed list response")
	}
	rows := make([]schema.Record, 0, len(body.Data))
	for _, raw := range body.Data {
		rec := c.schema.New()
		if err := json.Unmarshal(raw, rec); err != nil {
			return nil, 0, serrors.NewMessage("malformed list response")
		}
		rows = append(rows, rec)
	}
	return rows, body.Total, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (schema.Record, error) {
	data, err := c.doJSON(ctx, http.MethodGet, c.resourcePath(fmt.Sprintf("/id/%d", id)), nil, nil)
	if err != nil {
		return nil, serrors.Translate(err)
	}
	return c.decodeRecord(data)
}

func (c *Client) Create(ctx context.Context, rec schema.Record) (schema.Record, error) {
	data, err := c.doJSON(ctx, http.MethodPost, c.resourcePath(""), nil, rec)
	if err != nil {
		return nil, serrors.Translate(err)
	}
	return c.decodeRecord(data)
}

func (c *Client) Update(ctx context.Context, rec schema.Record) (schema.Record, error) {
	id := rec.EntityID()
	if id == nil {
		return nil, serrors.NewMessage("cannot update an unpersisted record")
	}
	data, err := c.doJSON(ctx, http.MethodPut, c.resourcePath(fmt.Sprintf("/%d", *id)), nil, rec)
	if err != nil {
		return nil, serrors.Translate(err)
	}
	return c.decodeRecord(data)
}

func (c *Client) Deactivate(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, http.MethodPatch, c.resourcePath(fmt.Sprintf("/%d/deactivate", id)), nil, nil)
	if err != nil {
		return serrors.Translate(err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.doJSON(ctx, http.MethodDelete, c.resourcePath(fmt.Sprintf("/%d", id)), nil, nil)
	if err != nil {
		return serrors.Translate(err)
	}
	return nil
}

// UploadAttachment posts a single file against a persisted record id and
// returns the stored file's URL for the named url field.
func (c *Client) UploadAttachment(ctx context.Context, id int64, field, filename, contentType string, file io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return "", serrors.NewMessage("failed to prepare upload")
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", serrors.NewMessage("failed to read upload file")
	}
	if err := writer.WriteField("urlfield_name", field); err != nil {
		return "", serrors.NewMessage("failed to prepare upload")
	}
	if err := writer.Close(); err != nil {
		return "", serrors.NewMessage("failed to prepare upload")
	}

	path := c.resourcePath(fmt.Sprintf("/%d/uploadimgorfile", id))
	data, err := c.doRaw(ctx, http.MethodPost, path, nil, &buf, writer.FormDataContentType())
	if err != nil {
		return "", serrors.Translate(err)
	}

	var body httpapi.UploadBody
	if err := json.Unmarshal(data, &body); err != nil {
		return "", serrors.NewMessage("malformed upload response")
	}
	newURL, ok := body[field]
	if !ok || newURL == "" {
		return "", serrors.NewMessage("upload response missing file URL")
	}
	return newURL, nil
}

// DownloadTemplate fetches the entity's import template spreadsheet.
func (c *Client) DownloadTemplate(ctx context.Context) (string, []byte, error) {
	return c.downloadBlob(ctx, c.resourcePath("/xlsxtemplate"), nil, c.schema.TemplateFilename)
}

// ExportBatch streams all rows matching the given query (the caller strips
// pagination; export is never page-scoped).
func (c *Client) ExportBatch(ctx context.Context, values url.Values) (string, []byte, error) {
	return c.downloadBlob(ctx, c.resourcePath("/export/xlsx"), values, c.schema.ExportFilename)
}

// ImportBatch uploads a spreadsheet. A response that parses into a row-level
// report is passed through as-is, success or not; only failures without a
// row-level shape are translated.
func (c *Client) ImportBatch(ctx context.Context, filename string, file io.Reader) (*httpapi.ImportReport, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, serrors.NewMessage("failed to prepare import")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, serrors.NewMessage("failed to read import file")
	}
	if err := writer.Close(); err != nil {
		return nil, serrors.NewMessage("failed to prepare import")
	}

	path := c.resourcePath("/import/xlsx")
	data, err := c.doRaw(ctx, http.MethodPost, path, nil, &buf, writer.FormDataContentType())
	if err != nil {
		if resp, ok := err.(*httpapi.ResponseError); ok {
			var report httpapi.ImportReport
			if jsonErr := json.Unmarshal(resp.Body, &report); jsonErr == nil && report.RowLevel() {
				return &report, nil
			}
		}
		return nil, serrors.Translate(err)
	}

	var report httpapi.ImportReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, serrors.NewMessage("malformed import response")
	}
	return &report, nil
}

func (c *Client) decodeRecord(data []byte) (schema.Record, error) {
	rec := c.schema.New()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, serrors.NewMessage(fmt.Sprintf("malformed %s response", c.schema.Label))
	}
	return rec, nil
}

func (c *Client) downloadBlob(ctx context.Context, path string, values url.Values, fallbackName string) (string, []byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, values, nil, "")
	if err != nil {
		return "", nil, serrors.NewMessage("failed to build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logFailure(req, err)
		return "", nil, serrors.NewMessage(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, serrors.NewMessage("failed to read download")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, serrors.Translate(&httpapi.ResponseError{StatusCode: resp.StatusCode, Body: data})
	}

	filename := batch.FilenameFromDisposition(resp.Header, fallbackName)
	return filename, data, nil
}

// doJSON issues a request with an optional JSON body and returns the raw
// response body. Non-2xx responses come back as *httpapi.ResponseError.
func (c *Client) doJSON(ctx context.Context, method, path string, values url.Values, payload any) ([]byte, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.doRaw(ctx, method, path, values, body, contentType)
}

func (c *Client) doRaw(ctx context.Context, method, path string, values url.Values, body io.Reader, contentType string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, values, body, contentType)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logFailure(req, err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &httpapi.ResponseError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, values url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.base + path
	if len(values) > 0 {
		u += "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) logFailure(req *http.Request, err error) {
	c.log.WithFields(logrus.Fields{
		"method":     req.Method,
		"url":        req.URL.String(),
		"request_id": req.Header.Get("X-Request-ID"),
	}).WithError(err).Warn("backend request failed")
}

func (c *Client) resourcePath(suffix string) string {
	return "/" + c.schema.Resource + suffix
}
