package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"lumidecor/internal/catalog"
	"lumidecor/internal/intake"
)

const (
	defaultImageModel = "gemini-2.5-flash-image"
	defaultTextModel  = "gemini-3-pro-preview"

	redesignAspectRatio = "16:9"
	fallbackImageMime   = "image/png"
)

const adviceInstruction = "你是一位精通建筑、室内与景观设计的全能大师。请根据用户的需求提供专业的、极具前瞻性的建议。如果涉及购买单品，请利用搜索工具提供链接。语言应专业且具有启发性。"

const adviceFallback = "抱歉，我无法处理该建议。"

// ErrNoImageProduced is returned when the model answered without any inline image part.
var ErrNoImageProduced = errors.New("gemini: no image produced")

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	ImageModel string
	TextModel  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	imageModel string
	textModel  string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		imageModel: imageModel,
		textModel:  textModel,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// Redesign re-renders one image in the given style. image may be a data URL or bare base64.
func (c *Client) Redesign(ctx context.Context, image, stylePrompt string, mode catalog.Mode, input catalog.InputType) (string, error) {
	req := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				imagePart(image),
				{Text: RedesignPrompt(stylePrompt, mode, input)},
			},
		}},
		GenerationConfig: &generationConfig{
			ImageConfig: &imageConfig{AspectRatio: redesignAspectRatio},
		},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return "", fmt.Errorf("redesign: %w", err)
	}
	if len(resp.Images) == 0 {
		c.logger.Warn("redesign returned no image", "mode", mode, "input", input, "text", truncate(resp.Text, 200))
		return "", ErrNoImageProduced
	}
	return resp.Images[0], nil
}

// Edit applies a local change to the image and keeps the rest of the composition.
func (c *Client) Edit(ctx context.Context, image, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", errors.New("edit: instruction is empty")
	}

	req := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				imagePart(image),
				{Text: EditPrompt(instruction)},
			},
		}},
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil {
		return "", fmt.Errorf("edit: %w", err)
	}
	if len(resp.Images) == 0 {
		c.logger.Warn("edit returned no image", "text", truncate(resp.Text, 200))
		return "", ErrNoImageProduced
	}
	return resp.Images[0], nil
}

// Advise answers free text with search grounding enabled.
func (c *Client) Advise(ctx context.Context, text string, history []Message) (Advice, error) {
	req := generateContentRequest{
		Contents:          buildContents(history, text),
		SystemInstruction: &content{Parts: []part{{Text: adviceInstruction}}},
		Tools:             []tool{{GoogleSearch: &struct{}{}}},
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return Advice{}, fmt.Errorf("advice: %w", err)
	}

	out := Advice{Text: resp.Text, Links: resp.Links}
	if strings.TrimSpace(out.Text) == "" {
		out.Text = adviceFallback
	}
	return out, nil
}

func RedesignPrompt(stylePrompt string, mode catalog.Mode, input catalog.InputType) string {
	taskPrefix := "Reimagine this existing space. Maintain the structural boundaries but transform the materials, lighting, and elements completely."
	if input == catalog.InputSketch {
		taskPrefix = "You are a master architect. Take this hand-drawn line sketch and render it into a high-fidelity, photorealistic finished product."
	}

	var focus string
	switch mode {
	case catalog.ModeExterior:
		focus = "This is a full building architectural exterior design. Focus on the facade, volume, and site integration."
	case catalog.ModeLandscape:
		focus = "This is a landscape and garden design. Focus on plants, water features, paving, and outdoor atmosphere."
	default:
		focus = "This is an interior room design."
	}

	return fmt.Sprintf("%s %s\nTarget Style: %s.\nOutput should be a single, photorealistic %s image showing the final design.",
		taskPrefix, focus, strings.TrimSpace(stylePrompt), redesignAspectRatio)
}

func EditPrompt(instruction string) string {
	return fmt.Sprintf("Edit this design based on this request: %s. Keep everything else consistent with the current layout.", instruction)
}

func buildContents(history []Message, currentPrompt string) []content {
	contents := make([]content, 0, len(history)+1)

	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		role := msg.Role
		if role != "model" {
			role = "user"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: text}},
		})
	}

	return append(contents, content{
		Role:  "user",
		Parts: []part{{Text: strings.TrimSpace(currentPrompt)}},
	})
}

func imagePart(image string) part {
	mimeType, data := intake.SplitDataURL(image)
	if mimeType == "" {
		mimeType = fallbackImageMime
	}
	return part{InlineData: &blob{Data: data, MimeType: mimeType}}
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (Response, error) {
	if c.httpClient == nil {
		return Response{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return Response{}, fmt.Errorf("gemini API %s: %s", httpResp.Status, truncate(strings.TrimSpace(string(rawBody)), 500))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("gemini response", "model", model, "candidates", len(decoded.Candidates))
	return extractParts(decoded), nil
}

func extractParts(resp generateContentResponse) Response {
	if len(resp.Candidates) == 0 {
		return Response{}
	}

	var out Response
	var textBuilder strings.Builder

	first := resp.Candidates[0]
	for _, p := range first.Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" {
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = fallbackImageMime
			}
			out.Images = append(out.Images, fmt.Sprintf("data:%s;base64,%s", mimeType, p.InlineData.Data))
		}
	}
	out.Text = textBuilder.String()

	if first.GroundingMetadata != nil {
		for _, chunk := range first.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			out.Links = append(out.Links, Link{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}

	return out
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
}

type generationConfig struct {
	ImageConfig *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           content            `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	GroundingChunks []groundingChunk `json:"groundingChunks"`
}

type groundingChunk struct {
	Web *webChunk `json:"web,omitempty"`
}

type webChunk struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}
