// internal/workers/clients.go
package workers

import (
	"context"
)

// Herramientas externas que usan los workers. Aparecen en ErrorInfo.Tool y
// en la metadata del registry.
const (
	ToolSemanticScholar = "semantic_scholar"
	ToolHackerNews      = "hacker_news"
	ToolWebsite         = "website"
	ToolChat            = "chat_completions"
	ToolKnowledgeBase   = "knowledge_base"
)

// JSONGetter hace GETs cacheados que devuelven un objeto JSON.
type JSONGetter interface {
	Get(ctx context.Context, endpoint string, params map[string]string) (map[string]any, error)
}

// ScholarClient es el subconjunto del cliente HTTP que usa el analizador de
// papers: lecturas y búsquedas con limitadores separados.
type ScholarClient interface {
	JSONGetter
	Search(ctx context.Context, endpoint string, params map[string]string) (map[string]any, error)
}

// Fetcher descarga una URL absoluta sin cachear.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Poster envía un cuerpo JSON y decodifica la respuesta.
type Poster interface {
	Post(ctx context.Context, endpoint string, body any) (map[string]any, error)
}
