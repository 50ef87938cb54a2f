// Package attachment uploads a single document file against an already
// persisted record and hands back the stored URL, decorated with a
// cache-busting parameter so a replaced file shows up immediately.
package attachment

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/suyashkore/tms-console/pkg/serrors"
)

// Gateway is the upload slice of the entity gateway.
type Gateway interface {
	UploadAttachment(ctx context.Context, id int64, field, filename, contentType string, file io.Reader) (string, error)
}

type Uploader struct {
	gw  Gateway
	now func() time.Time
}

func New(gw Gateway) *Uploader {
	return &Uploader{gw: gw, now: time.Now}
}

// Upload sniffs the file's content type, posts it for the given url field
// and returns the stored URL with a ts cache-buster appended.
func (u *Uploader) Upload(ctx context.Context, id int64, field, filename string, file io.Reader) (string, error) {
	head := make([]byte, 3072)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", serrors.NewMessage("failed to read upload file")
	}
	mtype := mimetype.Detect(head[:n])
	body := io.MultiReader(bytes.NewReader(head[:n]), file)

	storedURL, err := u.gw.UploadAttachment(ctx, id, field, filename, mtype.String(), body)
	if err != nil {
		return "", serrors.From(err)
	}
	return WithCacheBuster(storedURL, u.now()), nil
}

// WithCacheBuster appends ts=<unix> to the URL's query. An unparsable URL
// is returned untouched rather than dropped.
func WithCacheBuster(raw string, t time.Time) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	values := parsed.Query()
	values.Set("ts", strconv.FormatInt(t.Unix(), 10))
	parsed.RawQuery = values.Encode()
	return parsed.String()
}
