package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cineboard/internal/services"
	"cineboard/internal/services/gemini"
	"cineboard/internal/services/llm"
	"cineboard/internal/storyboard"
)

const threeScenes = `{"title":"Night Train","scenes":[
 {"title":"Platform","action":"A woman waits","visualPrompt":"wide shot, sodium light"},
 {"title":"Boarding","action":"She steps in","dialogue":"Last call!","visualPrompt":"medium shot, steam"},
 {"title":"Departure","action":"The train leaves","visualPrompt":"low angle, red tail lights"}]}`

func geminiServer(t *testing.T, text string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(body)
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGeminiAnalyzerReturnsScenesInOrder(t *testing.T) {
	server := geminiServer(t, threeScenes, func(body map[string]any) {
		contents, _ := body["contents"].([]any)
		first, _ := contents[0].(map[string]any)
		parts, _ := first["parts"].([]any)
		part, _ := parts[0].(map[string]any)
		if part["text"] != "Story: a train leaves at night" {
			t.Errorf("unexpected user content %v", part["text"])
		}
		cfg, _ := body["generationConfig"].(map[string]any)
		if cfg["responseMimeType"] != "application/json" || cfg["responseJsonSchema"] == nil {
			t.Errorf("expected json schema generation config, got %v", cfg)
		}
		system, _ := body["systemInstruction"].(map[string]any)
		raw, _ := json.Marshal(system)
		if !strings.Contains(string(raw), "exactly 10 seconds") {
			t.Errorf("system prompt missing scene length: %s", raw)
		}
	})
	defer server.Close()

	client := gemini.NewClient(gemini.Config{APIKey: "k", BaseURL: server.URL})
	a := NewGemini(client, "analysis-model", 10, nil)
	draft, err := a.Analyze(context.Background(), "  a train leaves at night ", storyboard.ModeImage)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if draft.Title != "Night Train" || len(draft.Scenes) != 3 {
		t.Fatalf("unexpected draft %+v", draft)
	}
	if draft.Scenes[1].Dialogue != "Last call!" || draft.Scenes[2].Title != "Departure" {
		t.Fatalf("scene order or content mismatch: %+v", draft.Scenes)
	}
}

func TestGeminiAnalyzerRejectsEmptyScenes(t *testing.T) {
	server := geminiServer(t, `{"title":"Nothing","scenes":[]}`, nil)
	defer server.Close()

	a := NewGemini(gemini.NewClient(gemini.Config{APIKey: "k", BaseURL: server.URL}), "m", 10, nil)
	_, err := a.Analyze(context.Background(), "story", storyboard.ModeVideo)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGeminiAnalyzerRejectsMalformedJSON(t *testing.T) {
	server := geminiServer(t, "I cannot help with that", nil)
	defer server.Close()

	a := NewGemini(gemini.NewClient(gemini.Config{APIKey: "k", BaseURL: server.URL}), "m", 10, nil)
	if _, err := a.Analyze(context.Background(), "story", storyboard.ModeImage); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGeminiAnalyzerWrapsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	a := NewGemini(gemini.NewClient(gemini.Config{APIKey: "k", BaseURL: server.URL}), "m", 10, nil)
	if _, err := a.Analyze(context.Background(), "story", storyboard.ModeImage); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestLLMAnalyzerUsesSchemaResponseFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		format, _ := body["response_format"].(map[string]any)
		if format["type"] != "json_schema" {
			t.Errorf("unexpected response format %v", format)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "```json\n" + threeScenes + "\n```"}}},
		})
	}))
	defer server.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "demo"}, llm.WithSleeper(func(time.Duration) {}))
	draft, err := NewLLM(client, 10, nil).Analyze(context.Background(), "story", storyboard.ModeImage)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(draft.Scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(draft.Scenes))
	}
}

func TestValidateReportsMissingFields(t *testing.T) {
	err := Validate(storyboard.Draft{Scenes: []storyboard.SceneDraft{{Title: "ok", Action: "ok", VisualPrompt: "ok"}, {Title: "x"}}})
	if err == nil || !strings.Contains(err.Error(), "scene 1 missing action, visualPrompt") {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := Validate(storyboard.Draft{Scenes: []storyboard.SceneDraft{{Title: "a", Action: "b", VisualPrompt: "c"}}}); err != nil {
		t.Fatalf("expected valid draft without project title, got %v", err)
	}
}

func TestSchemaRequiresCoreFields(t *testing.T) {
	raw, err := json.Marshal(Schema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var decoded struct {
		Required   []string `json:"required"`
		Properties struct {
			Scenes struct {
				Items struct {
					Required []string `json:"required"`
				} `json:"items"`
			} `json:"scenes"`
		} `json:"properties"`
		Ref string `json:"$ref"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if decoded.Ref != "" {
		t.Fatalf("schema must be inlined, got $ref %q", decoded.Ref)
	}
	items := strings.Join(decoded.Properties.Scenes.Items.Required, ",")
	for _, field := range []string{"title", "action", "visualPrompt"} {
		if !strings.Contains(items, field) {
			t.Fatalf("expected %s to be required in %v", field, items)
		}
	}
	if strings.Contains(items, "dialogue") {
		t.Fatalf("dialogue must be optional, got %v", items)
	}
}

func TestFuncAdapter(t *testing.T) {
	var a Analyzer = Func(func(ctx context.Context, text string, mode storyboard.Mode) (storyboard.Draft, error) {
		return storyboard.Draft{Title: text}, nil
	})
	draft, _ := a.Analyze(context.Background(), "t", storyboard.ModeImage)
	if draft.Title != "t" {
		t.Fatalf("unexpected draft %+v", draft)
	}
}
