// internal/platform/ui/colors.go
package ui

import "github.com/pterm/pterm"

// Paleta "Ink & Paper": tinta sobre papel envejecido, con acentos de
// subrayador para lo que requiere atención.

// Colores primarios
var (
	// InkBlue - Tinta de pluma, headers y elementos principales
	InkBlue = pterm.NewRGB(38, 84, 164)

	// MarginRed - Corrección en el margen, errores
	MarginRed = pterm.NewRGB(200, 40, 48)

	// HighlighterYellow - Subrayador, warnings y stages degradados
	HighlighterYellow = pterm.NewRGB(240, 196, 25)

	// PencilGray - Notas a lápiz, texto secundario y pendientes
	PencilGray = pterm.NewRGB(110, 110, 110)

	// PaperWhite - Papel, texto principal
	PaperWhite = pterm.NewRGB(240, 236, 226)

	// StampGreen - Sello de aprobado, éxito
	StampGreen = pterm.NewRGB(46, 160, 67)

	// ReviewTeal - Revisión en curso, running/active
	ReviewTeal = pterm.NewRGB(0, 150, 160)
)

// Estilos preconfigurados para diferentes contextos
var (
	// StylePrimary - Estilo principal para headers y elementos destacados
	StylePrimary = InkBlue.ToRGBStyle()

	// StyleSuccess - Estilo para operaciones exitosas
	StyleSuccess = StampGreen.ToRGBStyle()

	// StyleWarning - Estilo para advertencias
	StyleWarning = HighlighterYellow.ToRGBStyle()

	// StyleError - Estilo para errores
	StyleError = MarginRed.ToRGBStyle()

	// StyleSecondary - Estilo para texto secundario
	StyleSecondary = PencilGray.ToRGBStyle()

	// StyleText - Estilo para texto principal
	StyleText = PaperWhite.ToRGBStyle()

	// StyleActive - Estilo para elementos activos/running
	StyleActive = ReviewTeal.ToRGBStyle()
)

// StyleForRunStatus retorna el estilo de un estado de ejecución
func StyleForRunStatus(status string) pterm.RGBStyle {
	switch status {
	case "COMPLETED":
		return StyleSuccess
	case "TERMINATED_EARLY":
		return StyleWarning
	case "FAILED":
		return StyleError
	default:
		return StyleActive
	}
}
