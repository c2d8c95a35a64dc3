// internal/workers/chat.go
package workers

import (
	"context"
	"fmt"
	"strings"

	"paperflow/internal/core/domain"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
)

// Valores por defecto de los workers de chat.
const (
	DefaultChatModel       = "nova-fast"
	DefaultChatTemperature = 0.7
	DefaultChatMaxTokens   = 2048
)

// chatEndpoint ruta relativa al base URL del proveedor OpenAI-compatible.
const chatEndpoint = "chat/completions"

// ChatConfig describe un worker de chat: qué instrucción envía y qué stages
// previos incluye en el prompt, en ese orden.
type ChatConfig struct {
	Name        string
	Instruction string
	Inputs      []string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatWorker envía una petición chat-completions con la instrucción del
// stage y las salidas previas, y devuelve el texto generado.
type ChatWorker struct {
	client Poster
	cfg    ChatConfig
	logger logx.Logger
}

// NewChatWorker crea un worker de chat.
func NewChatWorker(client Poster, cfg ChatConfig, logger logx.Logger) *ChatWorker {
	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultChatTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultChatMaxTokens
	}
	return &ChatWorker{
		client: client,
		cfg:    cfg,
		logger: logger.With("worker", cfg.Name),
	}
}

// Name implementa ports.Worker.
func (w *ChatWorker) Name() string {
	return w.cfg.Name
}

// Model retorna el modelo configurado.
func (w *ChatWorker) Model() string {
	return w.cfg.Model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Run implementa ports.Worker.
func (w *ChatWorker) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	prompt := w.Prompt(in)
	w.logger.Debug("requesting completion", "model", w.cfg.Model, "prompt_chars", len(prompt), "run_id", in.RunID)

	resp, err := w.client.Post(ctx, chatEndpoint, chatRequest{
		Model: w.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: w.cfg.Instruction},
			{Role: "user", Content: prompt},
		},
		Temperature: w.cfg.Temperature,
		MaxTokens:   w.cfg.MaxTokens,
	})
	if err != nil {
		w.logger.Warn("completion request failed", "model", w.cfg.Model, "error", err.Error())
		return domain.Failed(w.Name(), errors.ToolExecution(ToolChat, "completion request", err))
	}

	text, err := completionText(resp)
	if err != nil {
		w.logger.Warn("completion unusable", "model", w.cfg.Model, "error", err.Error())
		return domain.Failed(w.Name(), errors.ToolExecution(ToolChat, "completion response", err))
	}

	w.logger.Info("completion received", "model", w.cfg.Model, "chars", len(text))
	return domain.Succeeded(w.Name(), text)
}

// Prompt construye el mensaje de usuario: el input del run seguido de las
// salidas previas en el orden declarado. Las degradadas se anotan.
func (w *ChatWorker) Prompt(in domain.StageInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "arXiv paper: %s\n", in.Input.PaperID)
	if in.Input.MarketQuery != "" {
		fmt.Fprintf(&b, "Market focus: %s\n", in.Input.MarketQuery)
	}
	if in.Input.WebsiteURL != "" {
		fmt.Fprintf(&b, "Website: %s\n", in.Input.WebsiteURL)
	}
	if idea := strings.TrimSpace(in.Input.Metadata[MetadataIdea]); idea != "" {
		fmt.Fprintf(&b, "Idea: %s\n", idea)
	}

	for _, name := range w.cfg.Inputs {
		fmt.Fprintf(&b, "\n### %s\n\n", name)
		b.WriteString(section(in, name))
	}
	return b.String()
}

// completionText extrae choices[0].message.content.
func completionText(resp map[string]any) (string, error) {
	if msg, ok := resp["error"].(map[string]any); ok {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidResponse, msg["message"])
	}

	choices, ok := resp["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("%w: no choices", errors.ErrInvalidResponse)
	}
	choice, ok := choices[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: malformed choice", errors.ErrInvalidResponse)
	}
	message, ok := choice["message"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: choice without message", errors.ErrInvalidResponse)
	}
	content, _ := message["content"].(string)
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", errors.ErrInvalidResponse)
	}
	return content, nil
}
