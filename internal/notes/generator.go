// Package notes turns a captured audio artifact into structured markdown
// notes by calling the Gemini API. One request, one response, no streaming.
package notes

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"lectern/internal/session"
)

// Prompt is the fixed instruction sent alongside the audio. The five
// sections are what the formatter and the completed view are built around.
const Prompt = `Listen to this lecture recording and produce structured study notes in markdown with exactly these sections:

# Lecture Topic
A single line naming the subject of the lecture.

## Executive Summary
2-4 sentences capturing the core argument or content.

## Key Concepts
A bulleted list of the terms and ideas introduced, each with a one-line explanation.

## Detailed Notes
The substance of the lecture in order, using headers and bullet points.

## Action Items
Follow-ups, reading, or exercises mentioned. Write "None" if there are none.

Use only #/##/### headers, - bullets, and **bold**. Do not add any preamble before the first header.`

// DefaultModel is the model used when the config names none.
const DefaultModel = "gemini-2.5-flash"

// Generator produces notes text from an audio artifact, or fails.
type Generator interface {
	Generate(ctx context.Context, art session.Artifact) (string, error)
}

// Gemini generates notes with the Google GenAI SDK.
type Gemini struct {
	client *genai.Client
	model  string
	prompt string
}

// NewGemini builds a Gemini generator. prompt may be empty to use Prompt.
func NewGemini(ctx context.Context, apiKey, model, prompt string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set: set LECTERN_GEMINI_API_KEY or add gemini_api_key to config")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	if prompt == "" {
		prompt = Prompt
	}
	return &Gemini{client: client, model: model, prompt: prompt}, nil
}

// Generate sends the audio inline with the instructional prompt and returns
// the markdown text. All failures come back as a single wrapped error.
func (g *Gemini) Generate(ctx context.Context, art session.Artifact) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: art.MIME, Data: art.Data}},
			{Text: g.prompt},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate notes: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generate notes: empty response from model")
	}
	return text, nil
}
