package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/relay/agent"
	"github.com/spetersoncode/relay/agui"
	"github.com/spetersoncode/relay/client"
	"github.com/spetersoncode/relay/tool"
)

// AgentHandler runs the tool loop for AG-UI requests and streams the
// events over SSE.
type AgentHandler struct {
	client   *client.Client
	registry *tool.Registry
	config   *Config
}

// NewAgentHandler creates a handler serving the tools in registry.
func NewAgentHandler(c *client.Client, r *tool.Registry, cfg *Config) *AgentHandler {
	return &AgentHandler{client: c, registry: r, config: cfg}
}

// ServeHTTP handles POST requests to run the agent and stream events via SSE.
func (h *AgentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		slog.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	log := slog.With("run_id", input.RunID, "thread_id", input.ThreadID)

	prepared, err := input.Prepare()
	if err != nil {
		log.Warn("invalid input", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Frontend tools are manual: their calls end the run and go back to the
	// frontend.
	registry, err := prepared.Registry(h.registry)
	if err != nil {
		log.Warn("invalid frontend tools", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	log.Info("request started", "message_count", len(prepared.Messages), "frontend_tools", len(prepared.Tools))

	ctx := r.Context()
	res := h.client.CallModel(ctx, registry, prepared.Messages,
		agent.WithMaxTurns(h.config.MaxTurns),
		agent.WithTimeout(h.config.Timeout),
		agent.WithLogger(log),
	)
	defer res.Close()

	mapper := agui.NewMapper(prepared.ThreadID, prepared.RunID)
	var sent int
	for ev := range mapper.Stream(res.FullStream(ctx)) {
		if err := writeSSE(w, flusher, ev); err != nil {
			log.Error("failed to write SSE event", "error", err, "event_type", ev.Type())
			return
		}
		sent++
	}

	log.Info("request completed", "duration_ms", time.Since(start).Milliseconds(), "events_sent", sent)
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
