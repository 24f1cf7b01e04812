package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdulachik/fathom/internal/tier"
)

// FallbackSection is the title given to a reply that is not a JSON object.
const FallbackSection = "Analysis"

// Request describes a passage to comment on.
type Request struct {
	Text  string
	Tier  tier.Tier
	Play  string
	Scene string

	// Context is supplementary text appended to the prompt, such as
	// formatted Biblical passages or notes on related lines.
	Context string

	FollowUp         string
	PreviousAnalysis []Section
}

// Section is one titled part of a generated analysis.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Response is a generated analysis.
type Response struct {
	Sections []Section `json:"sections"`
	Mode     string    `json:"mode"`
	Model    string    `json:"model"`
}

// Analysis returns the sections as a title to body mapping.
func (r *Response) Analysis() map[string]string {
	m := make(map[string]string, len(r.Sections))
	for _, s := range r.Sections {
		m[s.Title] = s.Body
	}
	return m
}

// Generate asks Claude for commentary on req.Text at the depth of req.Tier.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	mode := req.Tier.Mode()
	system := fmt.Sprintf(systemPrompt, req.Play)

	messages := []Message{{Role: "user", Content: BuildPrompt(req)}}
	if req.FollowUp != "" {
		previous, err := json.Marshal(sectionsObject(req.PreviousAnalysis))
		if err != nil {
			return nil, fmt.Errorf("marshal previous analysis: %w", err)
		}
		messages = append(messages,
			Message{Role: "assistant", Content: string(previous)},
			Message{Role: "user", Content: fmt.Sprintf(followUpPrompt, req.FollowUp)},
		)
	}

	slog.Debug("requesting commentary",
		"mode", mode,
		"scene", req.Scene,
		"follow_up", req.FollowUp != "",
		"context_bytes", len(req.Context),
	)

	text, err := c.Complete(ctx, system, messages)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	return &Response{
		Sections: ParseSections(text),
		Mode:     mode,
		Model:    c.model,
	}, nil
}

// BuildPrompt renders the user prompt for a new passage.
func BuildPrompt(req Request) string {
	guidance, ok := modeGuidance[req.Tier.Mode()]
	if !ok {
		guidance = modeGuidance["basic"]
	}

	var sections strings.Builder
	for _, title := range req.Tier.Sections() {
		fmt.Fprintf(&sections, "- %s\n", title)
	}

	var supplementary string
	if strings.TrimSpace(req.Context) != "" {
		supplementary = contextPreamble + req.Context
	}

	return fmt.Sprintf(analysisPrompt,
		req.Play, req.Scene, req.Text, guidance, sections.String(), supplementary)
}

// ParseSections reads the model's reply as a JSON object of section title to
// HTML, preserving key order. Surrounding prose is ignored. A reply without
// a usable object becomes a single FallbackSection.
func ParseSections(text string) []Section {
	if obj := extractJSON(text); obj != "" {
		if sections, err := decodeSections(obj); err == nil && len(sections) > 0 {
			return sections
		}
	}
	return []Section{{Title: FallbackSection, Body: strings.TrimSpace(text)}}
}

func decodeSections(obj string) ([]Section, error) {
	dec := json.NewDecoder(strings.NewReader(obj))

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var sections []Section
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		title, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected section title, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("section %q: %w", title, err)
		}

		sections = append(sections, Section{Title: title, Body: sectionBody(raw)})
	}

	return sections, nil
}

// sectionBody returns string values as-is and compacts anything else.
func sectionBody(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// extractJSON returns the first balanced {...} object in text, or "".
// Braces inside JSON strings are skipped.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

// sectionsObject renders sections as an ordered JSON object.
type sectionsObject []Section

func (s sectionsObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sec.Title)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sec.Body)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
