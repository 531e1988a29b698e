package intake_test

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumidecor/internal/catalog"
	"lumidecor/internal/intake"
)

// smallest valid PNG header is enough for content sniffing
var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestFromBytes_SniffsMime(t *testing.T) {
	att, err := intake.FromBytes(pngBytes, "application/octet-stream", catalog.InputPhoto)
	require.NoError(t, err)

	assert.NotEmpty(t, att.ID)
	assert.Equal(t, intake.TypeImage, att.Type)
	assert.True(t, strings.HasPrefix(att.URL, "data:image/png;base64,"))
}

func TestFromBytes_SketchIsDrawing(t *testing.T) {
	att, err := intake.FromBytes(pngBytes, "image/png; charset=binary", catalog.InputSketch)
	require.NoError(t, err)
	assert.Equal(t, intake.TypeDrawing, att.Type)
}

func TestFromBytes_Rejects(t *testing.T) {
	_, err := intake.FromBytes(nil, "image/png", catalog.InputPhoto)
	assert.ErrorIs(t, err, intake.ErrEmpty)

	_, err = intake.FromBytes([]byte("hello, plain text"), "", catalog.InputPhoto)
	assert.ErrorIs(t, err, intake.ErrNotImage)
}

func TestFromReader_Limit(t *testing.T) {
	_, err := intake.FromReader(bytes.NewReader(pngBytes), "image/png", catalog.InputPhoto, 4)
	assert.ErrorIs(t, err, intake.ErrTooLarge)

	att, err := intake.FromReader(bytes.NewReader(pngBytes), "image/png", catalog.InputPhoto, 1024)
	require.NoError(t, err)
	assert.Equal(t, intake.TypeImage, att.Type)
}

func TestFromDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pngBytes)

	att, err := intake.FromDataURL("data:image/png;base64,"+payload, catalog.InputPhoto)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+payload, att.URL)

	_, err = intake.FromDataURL("not a data url", catalog.InputPhoto)
	assert.ErrorIs(t, err, intake.ErrDataURL)

	_, err = intake.FromDataURL("data:text/plain;base64,aGk=", catalog.InputPhoto)
	assert.ErrorIs(t, err, intake.ErrNotImage)

	_, err = intake.FromDataURL("data:image/png;base64,%%%", catalog.InputPhoto)
	assert.ErrorIs(t, err, intake.ErrDataURL)

	_, err = intake.FromDataURL("   ", catalog.InputPhoto)
	assert.ErrorIs(t, err, intake.ErrEmpty)
}

func TestFromBase64(t *testing.T) {
	att, err := intake.FromBase64("aGVsbG8=", "", catalog.InputSketch)
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,aGVsbG8=", att.URL)
	assert.Equal(t, intake.TypeDrawing, att.Type)
}

func TestSplitDataURL(t *testing.T) {
	mime, data := intake.SplitDataURL("data:image/webp;base64,QUJD")
	assert.Equal(t, "image/webp", mime)
	assert.Equal(t, "QUJD", data)

	mime, data = intake.SplitDataURL("QUJD")
	assert.Equal(t, "", mime)
	assert.Equal(t, "QUJD", data)
}

func TestQueue(t *testing.T) {
	q := intake.NewQueue()
	a := intake.Attachment{ID: "a"}
	b := intake.Attachment{ID: "b"}
	c := intake.Attachment{ID: "c"}

	q.Add(a, b, c)
	assert.Equal(t, 3, q.Len())

	assert.True(t, q.Remove("b"))
	assert.False(t, q.Remove("b"))
	assert.Equal(t, []intake.Attachment{a, c}, q.List())

	drained := q.Drain()
	assert.Equal(t, []intake.Attachment{a, c}, drained)
	assert.Equal(t, 0, q.Len())

	q.Add(b)
	q.Restore(drained)
	assert.Equal(t, []intake.Attachment{a, c, b}, q.List())
}
