// internal/platform/validator/validator.go
package validator

import (
	"net/url"
	"regexp"
	"strings"
)

// Paper identifier validators

// arxivIDRegex acepta identificadores modernos de arXiv (YYMM.NNNNN) con versión opcional.
var arxivIDRegex = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// s2IDRegex acepta los paperId de Semantic Scholar (SHA1 hexadecimal de 40 caracteres).
var s2IDRegex = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsArxivID verifica si un string es un identificador arXiv válido.
func IsArxivID(id string) bool {
	return arxivIDRegex.MatchString(id)
}

// NormalizeArxivID limpia prefijos habituales ("arXiv:", URLs de abs/pdf)
// y espacios. No valida el resultado.
//
// Ejemplos:
//   - "arXiv:1706.03762"                 -> "1706.03762"
//   - "https://arxiv.org/abs/2301.00001v2" -> "2301.00001v2"
//   - "https://arxiv.org/pdf/2301.00001.pdf" -> "2301.00001"
func NormalizeArxivID(id string) string {
	id = strings.TrimSpace(id)

	lower := strings.ToLower(id)
	for _, prefix := range []string{
		"https://arxiv.org/abs/",
		"http://arxiv.org/abs/",
		"https://arxiv.org/pdf/",
		"http://arxiv.org/pdf/",
		"arxiv:",
	} {
		if strings.HasPrefix(lower, prefix) {
			id = id[len(prefix):]
			break
		}
	}

	id = strings.TrimSuffix(id, ".pdf")
	return strings.TrimSuffix(id, "/")
}

// IsSemanticScholarID verifica si un string es un paperId de Semantic Scholar.
func IsSemanticScholarID(id string) bool {
	return s2IDRegex.MatchString(strings.ToLower(id))
}

// URL validators

// IsURL verifica si un string es una URL válida.
func IsURL(urlStr string) bool {
	if len(urlStr) == 0 {
		return false
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// Debe tener scheme y host
	return parsed.Scheme != "" && parsed.Host != ""
}

// IsHTTPURL verifica que la URL use http o https.
func IsHTTPURL(urlStr string) bool {
	if !IsURL(urlStr) {
		return false
	}
	scheme := strings.ToLower(strings.SplitN(urlStr, ":", 2)[0])
	return scheme == "http" || scheme == "https"
}

// NormalizeURL normaliza una URL a su forma canónica.
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return strings.ToLower(urlStr)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	// Remover puertos por defecto
	if parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80") {
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	}
	if parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443") {
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}

	if parsed.Path == "/" && parsed.RawQuery == "" && parsed.Fragment == "" {
		parsed.Path = ""
	}

	return parsed.String()
}

// Generic validators

// IsEmpty verifica si un string está vacío o solo contiene espacios.
func IsEmpty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// MaxLength verifica que un string no exceda una longitud máxima.
func MaxLength(s string, max int) bool {
	return len(s) <= max
}

// IsStageName verifica que un nombre de stage sea un identificador snake_case.
func IsStageName(name string) bool {
	return stageNameRegex.MatchString(name)
}

var stageNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
