// internal/core/ports/exporter.go
package ports

import (
	"io"

	"paperflow/internal/core/domain"
)

// Exporter es el port para exportar el resultado de una ejecución.
type Exporter interface {
	// Name retorna el nombre del exporter (ej: "json", "markdown")
	Name() string

	// Export escribe el resultado y retorna la ruta generada
	Export(result domain.RunResult, opts ExportOptions) (string, error)
}

// WriterExporter permite exportar a cualquier io.Writer.
type WriterExporter interface {
	Exporter

	// ExportToWriter exporta el resultado a un Writer personalizado
	ExportToWriter(result domain.RunResult, writer io.Writer, opts ExportOptions) error
}

// ExportOptions configura las opciones de exportación.
type ExportOptions struct {
	// OutputDir directorio donde guardar el resultado (vacío = directorio actual)
	OutputDir string

	// Pretty indica si el output debe ser formateado para legibilidad humana
	Pretty bool

	// IncludeStages si se deben incluir los resultados de cada stage
	IncludeStages bool
}

// DefaultExportOptions retorna opciones por defecto.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		OutputDir:     "",
		Pretty:        true,
		IncludeStages: true,
	}
}
