package gemini_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumidecor/internal/catalog"
	"lumidecor/internal/gemini"
)

type captured struct {
	path   string
	apiKey string
	body   map[string]any
}

func newServer(t *testing.T, status int, response string) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.apiKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &c.body)
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func newClient(srv *httptest.Server) *gemini.Client {
	return gemini.New(gemini.Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

const imageResponse = `{"candidates":[{"content":{"parts":[
	{"text":"here you go"},
	{"inlineData":{"mimeType":"image/png","data":"UkVTVUxU"}},
	{"inlineData":{"mimeType":"image/png","data":"U0VDT05E"}}
]}}]}`

func TestRedesign_ReturnsFirstImage(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, imageResponse)
	client := newClient(srv)

	img, err := client.Redesign(context.Background(), "data:image/jpeg;base64,T1JJRw==", "Scandinavian style", catalog.ModeInterior, catalog.InputPhoto)
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,UkVTVUxU", img)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image:generateContent", got.path)
	assert.Equal(t, "test-key", got.apiKey)

	cfg := got.body["generationConfig"].(map[string]any)
	assert.Equal(t, "16:9", cfg["imageConfig"].(map[string]any)["aspectRatio"])

	parts := got.body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "T1JJRw==", inline["data"])
	assert.Equal(t, "image/jpeg", inline["mimeType"])

	prompt := parts[1].(map[string]any)["text"].(string)
	assert.Contains(t, prompt, "Reimagine this existing space.")
	assert.Contains(t, prompt, "This is an interior room design.")
	assert.Contains(t, prompt, "Target Style: Scandinavian style.")
}

func TestRedesign_BareBase64DefaultsToPNG(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, imageResponse)
	client := newClient(srv)

	_, err := client.Redesign(context.Background(), "T1JJRw==", "x", catalog.ModeLandscape, catalog.InputSketch)
	require.NoError(t, err)

	parts := got.body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
}

func TestRedesign_NoImage(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`)
	client := newClient(srv)

	img, err := client.Redesign(context.Background(), "QQ==", "x", catalog.ModeInterior, catalog.InputPhoto)
	assert.ErrorIs(t, err, gemini.ErrNoImageProduced)
	assert.Empty(t, img)
}

func TestRedesign_APIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden, `{"error":{"message":"API key not valid"}}`)
	client := newClient(srv)

	_, err := client.Redesign(context.Background(), "QQ==", "x", catalog.ModeInterior, catalog.InputPhoto)
	require.Error(t, err)
	assert.NotErrorIs(t, err, gemini.ErrNoImageProduced)
	assert.Contains(t, err.Error(), "403")
}

func TestEdit(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, imageResponse)
	client := newClient(srv)

	img, err := client.Edit(context.Background(), "data:image/png;base64,QQ==", "把地毯换成浅灰色大理石")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,UkVTVUxU", img)

	assert.Nil(t, got.body["generationConfig"])
	parts := got.body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	prompt := parts[1].(map[string]any)["text"].(string)
	assert.Equal(t, "Edit this design based on this request: 把地毯换成浅灰色大理石. Keep everything else consistent with the current layout.", prompt)

	_, err = client.Edit(context.Background(), "QQ==", "   ")
	assert.Error(t, err)
}

func TestAdvise_WithGrounding(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"candidates":[{
		"content":{"parts":[{"text":"推荐这款沙发"}]},
		"groundingMetadata":{"groundingChunks":[
			{"web":{"uri":"https://shop.example/sofa","title":"Sofa"}},
			{"retrievedContext":{}},
			{"web":{"uri":"https://shop.example/lamp","title":"Lamp"}}
		]}
	}]}`)
	client := newClient(srv)

	history := []gemini.Message{
		{Role: "model", Text: "欢迎"},
		{Role: "user", Text: ""},
	}
	advice, err := client.Advise(context.Background(), "推荐一款北欧风沙发", history)
	require.NoError(t, err)

	assert.Equal(t, "推荐这款沙发", advice.Text)
	assert.Equal(t, []gemini.Link{
		{Title: "Sofa", URI: "https://shop.example/sofa"},
		{Title: "Lamp", URI: "https://shop.example/lamp"},
	}, advice.Links)

	assert.Equal(t, "/v1beta/models/gemini-3-pro-preview:generateContent", got.path)
	tools := got.body["tools"].([]any)
	assert.Contains(t, tools[0].(map[string]any), "googleSearch")
	contents := got.body["contents"].([]any)
	require.Len(t, contents, 2, "blank history turns are skipped")
	assert.Equal(t, "model", contents[0].(map[string]any)["role"])
	sys := got.body["systemInstruction"].(map[string]any)["parts"].([]any)[0].(map[string]any)["text"].(string)
	assert.True(t, strings.HasPrefix(sys, "你是一位精通建筑"))
}

func TestAdvise_EmptyTextFallback(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"candidates":[]}`)
	client := newClient(srv)

	advice, err := client.Advise(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "抱歉，我无法处理该建议。", advice.Text)
	assert.Empty(t, advice.Links)
}

func TestRedesignPrompt_Sketch(t *testing.T) {
	p := gemini.RedesignPrompt("Futuristic", catalog.ModeExterior, catalog.InputSketch)
	assert.Contains(t, p, "hand-drawn line sketch")
	assert.Contains(t, p, "Focus on the facade")
	assert.Contains(t, p, "16:9")
}
