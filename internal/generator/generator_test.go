package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdulachik/fathom/internal/tier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClaude answers every request with reply and records the last request body.
func fakeClaude(t *testing.T, reply string, last *claudeRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, claudeAPIVersion, r.Header.Get("anthropic-version"))

		if last != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(last))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_123",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]string{{"type": "text", "text": reply}},
			"stop_reason": "end_turn",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Complete(t *testing.T) {
	t.Run("successful completion", func(t *testing.T) {
		var last claudeRequest
		server := fakeClaude(t, "Hello, world!", &last)
		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL})

		text, err := client.Complete(context.Background(), "system", []Message{{Role: "user", Content: "hi"}})
		require.NoError(t, err)
		assert.Equal(t, "Hello, world!", text)
		assert.Equal(t, defaultModel, last.Model)
		assert.Equal(t, "system", last.System)
		require.Len(t, last.Messages, 1)
	})

	t.Run("handles API error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limit exceeded"}}`))
		}))
		defer server.Close()

		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL})
		_, err := client.Complete(context.Background(), "system", []Message{{Role: "user", Content: "hi"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
		assert.Contains(t, err.Error(), "rate limit")
	})

	t.Run("empty response", func(t *testing.T) {
		server := fakeClaude(t, "   ", nil)
		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL})

		_, err := client.Complete(context.Background(), "system", []Message{{Role: "user", Content: "hi"}})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("missing API key", func(t *testing.T) {
		client := New(Config{})
		assert.False(t, client.Configured())

		_, err := client.Complete(context.Background(), "system", nil)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL, Timeout: 20 * time.Millisecond})
		_, err := client.Complete(context.Background(), "system", []Message{{Role: "user", Content: "hi"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "send request")
	})
}

func TestClient_Generate(t *testing.T) {
	reply := `Here is the commentary:
{"Plain Meaning": "<p>Macbeth sees a <em>dagger</em>.</p>", "Context": "<p>Before the murder of Duncan.</p>"}`

	t.Run("structured reply keeps section order", func(t *testing.T) {
		var last claudeRequest
		server := fakeClaude(t, reply, &last)
		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL, Model: "test-model"})

		resp, err := client.Generate(context.Background(), Request{
			Text:    "Is this a dagger which I see before me",
			Tier:    tier.Basic,
			Play:    "Macbeth",
			Scene:   "ACT 2, SCENE 1",
			Context: "Relevant passages from the Geneva Bible:\n\n1. Genesis 1:1",
		})
		require.NoError(t, err)

		require.Len(t, resp.Sections, 2)
		assert.Equal(t, "Plain Meaning", resp.Sections[0].Title)
		assert.Equal(t, "Context", resp.Sections[1].Title)
		assert.Equal(t, "<p>Before the murder of Duncan.</p>", resp.Analysis()["Context"])
		assert.Equal(t, "basic", resp.Mode)
		assert.Equal(t, "test-model", resp.Model)

		assert.Equal(t, "test-model", last.Model)
		assert.Contains(t, last.System, "Macbeth")
		require.Len(t, last.Messages, 1)
		assert.Contains(t, last.Messages[0].Content, "Is this a dagger")
		assert.Contains(t, last.Messages[0].Content, "ACT 2, SCENE 1")
		assert.Contains(t, last.Messages[0].Content, "Genesis 1:1")
	})

	t.Run("follow-up carries previous analysis", func(t *testing.T) {
		var last claudeRequest
		server := fakeClaude(t, `{"Answer": "<p>Yes.</p>"}`, &last)
		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL})

		resp, err := client.Generate(context.Background(), Request{
			Text:             "Is this a dagger",
			Tier:             tier.Expert,
			Play:             "Macbeth",
			Scene:            "ACT 2, SCENE 1",
			FollowUp:         "Is the dagger real?",
			PreviousAnalysis: []Section{{Title: "Plain Meaning", Body: "<p>A vision.</p>"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []Section{{Title: "Answer", Body: "<p>Yes.</p>"}}, resp.Sections)
		assert.Equal(t, "expert", resp.Mode)

		require.Len(t, last.Messages, 3)
		assert.Equal(t, "assistant", last.Messages[1].Role)
		assert.Contains(t, last.Messages[1].Content, "Plain Meaning")
		assert.Contains(t, last.Messages[2].Content, "Is the dagger real?")
	})

	t.Run("plain text reply", func(t *testing.T) {
		server := fakeClaude(t, "  The dagger is a hallucination.  ", nil)
		client := New(Config{APIKey: "test-api-key", BaseURL: server.URL})

		resp, err := client.Generate(context.Background(), Request{Text: "dagger", Tier: tier.Basic})
		require.NoError(t, err)
		assert.Equal(t, []Section{{Title: FallbackSection, Body: "The dagger is a hallucination."}}, resp.Sections)
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("lists the tier's sections", func(t *testing.T) {
		prompt := BuildPrompt(Request{Text: "Out, damned spot", Tier: tier.FullFathomFive, Play: "Macbeth", Scene: "ACT 5, SCENE 1"})
		for _, s := range tier.FullFathomFive.Sections() {
			assert.Contains(t, prompt, "- "+s)
		}
		assert.Contains(t, prompt, modeGuidance["fullfathomfive"])
		assert.NotContains(t, prompt, "Supplementary context")
	})

	t.Run("intermediate uses expert guidance", func(t *testing.T) {
		prompt := BuildPrompt(Request{Text: "x", Tier: tier.Intermediate})
		assert.Contains(t, prompt, modeGuidance["expert"])
	})

	t.Run("includes supplementary context", func(t *testing.T) {
		prompt := BuildPrompt(Request{Text: "x", Tier: tier.Expert, Context: "Genesis 1:1"})
		assert.Contains(t, prompt, "Supplementary context")
		assert.Contains(t, prompt, "Genesis 1:1")
	})
}

func TestParseSections(t *testing.T) {
	t.Run("non-string values are compacted", func(t *testing.T) {
		sections := ParseSections(`{"Themes": ["ambition", "guilt"]}`)
		assert.Equal(t, []Section{{Title: "Themes", Body: `["ambition","guilt"]`}}, sections)
	})

	t.Run("empty object falls back", func(t *testing.T) {
		sections := ParseSections(`{}`)
		assert.Equal(t, []Section{{Title: FallbackSection, Body: "{}"}}, sections)
	})

	t.Run("malformed object falls back", func(t *testing.T) {
		sections := ParseSections(`{"Plain Meaning": }`)
		assert.Equal(t, FallbackSection, sections[0].Title)
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean object", `{"a": "b"}`, `{"a": "b"}`},
		{"with preamble", `Sure! {"a": "b"} Enjoy.`, `{"a": "b"}`},
		{"nested", `{"a": {"b": "c"}}`, `{"a": {"b": "c"}}`},
		{"braces in strings", `{"a": "a } brace", "b": "\"{"}`, `{"a": "a } brace", "b": "\"{"}`},
		{"no object", `just prose`, ""},
		{"unterminated", `{"a": "b"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.input))
		})
	}
}

func TestSectionsObject_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(sectionsObject{{Title: "B", Body: "1"}, {Title: "A", Body: "2"}})
	require.NoError(t, err)
	assert.Equal(t, `{"B":"1","A":"2"}`, string(data))
}
