// Package llm asks single questions to the Gemini API.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/config"
	"tereborace.com/taboleiro/internal/metrics"
)

// Asker answers one question. No state is kept between calls.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Gemini is a single-turn client for models/{model}:generateContent.
type Gemini struct {
	cfg    config.GeminiConfig
	client *http.Client
	log    *zap.Logger
}

// NewGemini creates a client. A zero cfg.Timeout leaves the call bounded
// only by the context.
func NewGemini(cfg config.GeminiConfig, log *zap.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gemini{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}, log: log}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Prompt joins the system instruction and the user question.
func Prompt(instruction, question string) string {
	if instruction == "" {
		return question
	}
	return instruction + "\n\nPregunta del usuario: " + question
}

// Ask sends one question and returns the model's text. Every failure is an
// apperr.ExternalService error; there is no retry.
func (g *Gemini) Ask(ctx context.Context, question string) (string, error) {
	text, err := g.call(ctx, Prompt(g.cfg.SystemInstruction, question))
	metrics.LLMRequests.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		g.log.Warn("gemini call failed", zap.String("model", g.cfg.Model), zap.Error(err))
		return "", apperr.Wrap(err, apperr.ExternalService, "gemini %s", g.cfg.Model)
	}
	g.log.Debug("gemini answered", zap.String("model", g.cfg.Model), zap.Int("chars", len(text)))
	return text, nil
}

func (g *Gemini) call(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", fmt.Errorf("no API key configured")
	}
	body, err := gojson.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", strings.TrimSuffix(g.cfg.Endpoint, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	g.log.Debug("gemini response", zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	var out geminiResponse
	if err := gojson.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
		}
		return "", fmt.Errorf("parse response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("error %d: %s", out.Error.Code, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var b strings.Builder
	if len(out.Candidates) > 0 {
		for _, p := range out.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}
	return b.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
