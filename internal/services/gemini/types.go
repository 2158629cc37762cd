package gemini

import (
	"encoding/json"
	"strings"
)

// Part is one piece of a content turn: text or inline binary data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64-encoded bytes as returned by the API.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is a role-tagged list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// UserText builds a single-part user turn.
func UserText(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}

// ImageConfig controls image generation output.
type ImageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// GenerationConfig mirrors the subset of generationConfig CineBoard uses.
type GenerationConfig struct {
	Temperature        *float64     `json:"temperature,omitempty"`
	ResponseMIMEType   string       `json:"responseMimeType,omitempty"`
	ResponseJSONSchema any          `json:"responseJsonSchema,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *ImageConfig `json:"imageConfig,omitempty"`
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// Candidate is one generated response.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// GenerateResponse is the generateContent response body.
type GenerateResponse struct {
	Candidates     []Candidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

// FirstInlineData returns the first inline data part across all candidates.
func (r GenerateResponse) FirstInlineData() (InlineData, bool) {
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return *part.InlineData, true
			}
		}
	}
	return InlineData{}, false
}

// VideoRequest describes a predictLongRunning video generation job.
type VideoRequest struct {
	Prompt      string
	AspectRatio string
	Resolution  string
	SampleCount int
}

func (r VideoRequest) payload() map[string]any {
	params := map[string]any{}
	if r.AspectRatio != "" {
		params["aspectRatio"] = r.AspectRatio
	}
	if r.Resolution != "" {
		params["resolution"] = r.Resolution
	}
	count := r.SampleCount
	if count <= 0 {
		count = 1
	}
	params["sampleCount"] = count
	return map[string]any{
		"instances":  []map[string]any{{"prompt": r.Prompt}},
		"parameters": params,
	}
}

// OperationError is the google.rpc.Status attached to a failed operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Operation is a long-running operation resource.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type videoRef struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

// VideoURI returns the first generated video URI. Both the REST shape
// (generateVideoResponse.generatedSamples) and the SDK shape (generatedVideos)
// are accepted.
func (o Operation) VideoURI() string {
	if len(o.Response) == 0 {
		return ""
	}
	var payload struct {
		GenerateVideoResponse struct {
			GeneratedSamples []videoRef `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
		GeneratedVideos []videoRef `json:"generatedVideos"`
	}
	if err := json.Unmarshal(o.Response, &payload); err != nil {
		return ""
	}
	for _, refs := range [][]videoRef{payload.GenerateVideoResponse.GeneratedSamples, payload.GeneratedVideos} {
		for _, ref := range refs {
			if uri := strings.TrimSpace(ref.Video.URI); uri != "" {
				return uri
			}
		}
	}
	return ""
}
