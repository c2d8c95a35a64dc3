// internal/core/usecases/plan.go
package usecases

import (
	"fmt"
	"strings"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/validator"
)

// Unit es un elemento del plan de ejecución: un stage aislado o un grupo
// de stages que corren concurrentemente (fan-out/fan-in).
type Unit struct {
	// Name nombre del stage o del grupo
	Name string

	// Stages specs de la unidad, en orden declarado
	Stages []domain.StageSpec

	concurrent bool
}

// Stage crea una unidad con un único stage.
func Stage(spec domain.StageSpec) Unit {
	return Unit{Name: spec.Name, Stages: []domain.StageSpec{spec}}
}

// Group crea una unidad cuyos miembros corren en paralelo. Ningún miembro
// puede requerir el resultado de otro miembro del mismo grupo.
func Group(name string, specs ...domain.StageSpec) Unit {
	return Unit{Name: name, Stages: specs, concurrent: true}
}

// IsGroup retorna true si la unidad es un grupo concurrente.
func (u Unit) IsGroup() bool {
	return u.concurrent
}

// StageNames retorna los nombres de los stages de la unidad.
func (u Unit) StageNames() []string {
	names := make([]string, 0, len(u.Stages))
	for _, s := range u.Stages {
		names = append(names, s.Name)
	}
	return names
}

// Size retorna el número de stages en la unidad.
func (u Unit) Size() int {
	return len(u.Stages)
}

// Plan es la secuencia ordenada de unidades de una ejecución. Se define una
// vez al configurar el proceso y es inmutable durante las ejecuciones.
type Plan struct {
	Units []Unit

	// Terminal stage cuyo contenido es el output final; vacío = último stage
	Terminal string
}

// NewPlan crea un plan con las unidades dadas.
func NewPlan(units ...Unit) Plan {
	return Plan{Units: units}
}

// WithTerminal retorna una copia del plan con el stage terminal indicado.
func (p Plan) WithTerminal(name string) Plan {
	p.Terminal = name
	return p
}

// Stages retorna todos los specs del plan en orden de ejecución.
func (p Plan) Stages() []domain.StageSpec {
	var specs []domain.StageSpec
	for _, u := range p.Units {
		specs = append(specs, u.Stages...)
	}
	return specs
}

// StageCount retorna el número total de stages.
func (p Plan) StageCount() int {
	n := 0
	for _, u := range p.Units {
		n += u.Size()
	}
	return n
}

// Spec busca el spec de name.
func (p Plan) Spec(name string) (domain.StageSpec, bool) {
	for _, u := range p.Units {
		for _, s := range u.Stages {
			if s.Name == name {
				return s, true
			}
		}
	}
	return domain.StageSpec{}, false
}

// TerminalStage retorna el stage cuyo contenido es el output final.
func (p Plan) TerminalStage() string {
	if p.Terminal != "" {
		return p.Terminal
	}
	if len(p.Units) == 0 {
		return ""
	}
	last := p.Units[len(p.Units)-1]
	if len(last.Stages) == 0 {
		return ""
	}
	return last.Stages[len(last.Stages)-1].Name
}

// ConfidenceSources retorna los stages que alimentan el confidence gate.
func (p Plan) ConfidenceSources() []string {
	var names []string
	for _, s := range p.Stages() {
		if s.ConfidenceSource {
			names = append(names, s.Name)
		}
	}
	return names
}

// Validate verifica la estructura del plan sin resolver workers:
// nombres únicos, inputs producidos por unidades anteriores y ausencia
// de ciclos.
func (p Plan) Validate() error {
	const op = "plan.validate"

	if len(p.Units) == 0 {
		return errors.E(errors.KindValidation, op, "plan has no units", domain.ErrEmptyPlan)
	}

	seen := make(map[string]bool)
	for i, u := range p.Units {
		if len(u.Stages) == 0 {
			return errors.E(errors.KindValidation, op, fmt.Sprintf("unit %d (%q) has no stages", i+1, u.Name), domain.ErrEmptyPlan)
		}
		if u.IsGroup() && !validator.IsStageName(u.Name) {
			return errors.Validation(op, fmt.Sprintf("invalid group name %q", u.Name))
		}
		for _, s := range u.Stages {
			if err := s.Validate(); err != nil {
				return err
			}
			if seen[s.Name] {
				return errors.E(errors.KindValidation, op, fmt.Sprintf("stage %q declared twice", s.Name), domain.ErrDuplicateStage)
			}
			seen[s.Name] = true
		}
	}

	if _, err := p.DependencyLevels(); err != nil {
		return err
	}

	produced := make(map[string]bool)
	for _, u := range p.Units {
		siblings := make(map[string]bool, len(u.Stages))
		for _, s := range u.Stages {
			siblings[s.Name] = true
		}

		for _, s := range u.Stages {
			for _, in := range s.RequiredInputs {
				if produced[in] {
					continue
				}
				var msg string
				switch {
				case u.IsGroup() && siblings[in]:
					msg = fmt.Sprintf("stage %q requires %q from the same group %q", s.Name, in, u.Name)
				case seen[in]:
					msg = fmt.Sprintf("stage %q requires %q which runs later", s.Name, in)
				default:
					msg = fmt.Sprintf("stage %q requires unknown stage %q", s.Name, in)
				}
				return errors.E(errors.KindCoordination, op, msg, domain.ErrMissingInput)
			}
		}

		for name := range siblings {
			produced[name] = true
		}
	}

	if p.Terminal != "" && !seen[p.Terminal] {
		return errors.Validation(op, fmt.Sprintf("terminal stage %q is not in the plan", p.Terminal))
	}

	return nil
}

// Resolve valida el plan y resuelve el worker de cada stage. Un worker
// desconocido es un error de configuración del modelo.
func (p Plan) Resolve(resolver ports.WorkerResolver) (map[string]ports.Worker, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, errors.ModelConfiguration("plan.resolve", "no worker resolver configured")
	}

	workers := make(map[string]ports.Worker, p.StageCount())
	for _, s := range p.Stages() {
		w, err := resolver.Resolve(s.WorkerName())
		if err != nil {
			return nil, errors.Wrapf(err, "stage %q", s.Name)
		}
		workers[s.Name] = w
	}
	return workers, nil
}

// String describe el plan en una línea (ej: "[a | b] -> c -> d").
func (p Plan) String() string {
	parts := make([]string, 0, len(p.Units))
	for _, u := range p.Units {
		if u.IsGroup() {
			parts = append(parts, "["+strings.Join(u.StageNames(), " | ")+"]")
			continue
		}
		parts = append(parts, u.Name)
	}
	return strings.Join(parts, " -> ")
}
