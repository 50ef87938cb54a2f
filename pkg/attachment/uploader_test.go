package attachment

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyashkore/tms-console/pkg/serrors"
)

type fakeGateway struct {
	id          int64
	field       string
	filename    string
	contentType string
	body        []byte
	url         string
	err         error
}

func (f *fakeGateway) UploadAttachment(_ context.Context, id int64, field, filename, contentType string, file io.Reader) (string, error) {
	f.id = id
	f.field = field
	f.filename = filename
	f.contentType = contentType
	f.body, _ = io.ReadAll(file)
	return f.url, f.err
}

func fixedClock(u *Uploader, at time.Time) *Uploader {
	u.now = func() time.Time { return at }
	return u
}

func TestUpload_SniffsContentTypeAndAppendsCacheBuster(t *testing.T) {
	gw := &fakeGateway{url: "/files/companies/7/logo.png"}
	u := fixedClock(New(gw), time.Unix(1700000000, 0))
	payload := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	got, err := u.Upload(context.Background(), 7, "logo_url", "logo.png", bytes.NewReader(payload))

	require.NoError(t, err)
	assert.Equal(t, "/files/companies/7/logo.png?ts=1700000000", got)
	assert.Equal(t, int64(7), gw.id)
	assert.Equal(t, "logo_url", gw.field)
	assert.Equal(t, "logo.png", gw.filename)
	assert.Equal(t, "image/png", gw.contentType)
	assert.Equal(t, payload, gw.body, "the sniffed head must be replayed to the gateway")
}

func TestUpload_LargeFileBodyIsComplete(t *testing.T) {
	// Larger than the sniff window, so the body crosses the head/tail seam.
	payload := bytes.Repeat([]byte("abcdefgh"), 1024)
	gw := &fakeGateway{url: "/files/companies/1/doc.bin"}
	u := New(gw)

	_, err := u.Upload(context.Background(), 1, "rc_doc_url", "doc.bin", bytes.NewReader(payload))

	require.NoError(t, err)
	assert.Equal(t, payload, gw.body)
}

func TestUpload_GatewayFailureIsNormalized(t *testing.T) {
	gw := &fakeGateway{err: serrors.NewMessage("Record not found")}
	u := New(gw)

	_, err := u.Upload(context.Background(), 99, "logo_url", "logo.png", strings.NewReader("x"))

	require.Error(t, err)
	assert.Equal(t, "Record not found", serrors.From(err).Text)
}

func TestWithCacheBuster(t *testing.T) {
	at := time.Unix(1700000000, 0)

	assert.Equal(t, "/files/a.png?ts=1700000000", WithCacheBuster("/files/a.png", at))
	assert.Equal(t, "/files/a.png?ts=1700000000&v=2",
		WithCacheBuster("/files/a.png?v=2&ts=9", at), "an existing ts is replaced")
	assert.Equal(t, "://bad", WithCacheBuster("://bad", at), "unparsable URLs pass through")
}
