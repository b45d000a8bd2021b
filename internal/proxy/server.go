// Package proxy exposes the interception pipeline behind an OpenAI-compatible
// HTTP surface, so existing chat clients can be pointed at firebreak without
// modification.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/firebreak-sh/firebreak/internal/intercept"
	"github.com/firebreak-sh/firebreak/internal/policy"
)

const proxyModelID = "firebreak-proxy"

// Config holds proxy server configuration.
type Config struct {
	Port        int
	Interceptor *intercept.Interceptor
	Engine      *policy.Engine
}

// Server serves /health, /v1/models and /v1/chat/completions, routing every
// chat completion through the policy pipeline before any downstream call.
type Server struct {
	cfg Config
	srv *http.Server
}

// NewServer creates a proxy server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Interceptor == nil {
		return nil, fmt.Errorf("proxy requires an interceptor")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("proxy requires a policy engine")
	}

	s := &Server{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	return s, nil
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins listening for requests. Blocks until context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the proxy server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	pol := s.cfg.Engine.Policy()
	resp := map[string]any{
		"status":      "ok",
		"policy_hash": s.cfg.Engine.Hash(),
	}
	if pol != nil {
		resp["policy"] = pol.Name
		resp["policy_version"] = pol.Version
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data": []any{
			map[string]any{
				"id":       proxyModelID,
				"object":   "model",
				"created":  time.Now().UTC().Unix(),
				"owned_by": "firebreak",
			},
		},
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "", "request body is not valid JSON")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "", "messages must not be empty")
		return
	}

	prompt := lastUserMessage(req.Messages)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "", "no user message found")
		return
	}

	evaluation, err := s.cfg.Interceptor.EvaluateRequest(r.Context(), prompt, map[string]string{
		"source": "openai_proxy",
		"model":  req.Model,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", "", err.Error())
		return
	}

	if !evaluation.Decision.Allowed() {
		msg := fmt.Sprintf("Request blocked by policy rule %q: %s", evaluation.RuleID, evaluation.RuleDescription)
		writeError(w, http.StatusBadRequest, "policy_violation", "content_policy_violation", msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		"object":  "chat.completion",
		"created": time.Now().UTC().Unix(),
		"model":   proxyModelID,
		"choices": []any{
			map[string]any{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": evaluation.LLMResponse,
				},
				"finish_reason": "stop",
			},
		},
	})
}

// lastUserMessage returns the content of the most recent user-role message.
func lastUserMessage(messages []chatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, code, message string) {
	body := map[string]any{
		"type":    errType,
		"message": message,
	}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, map[string]any{"error": body})
}
