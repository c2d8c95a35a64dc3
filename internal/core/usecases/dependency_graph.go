// internal/core/usecases/dependency_graph.go
package usecases

import (
	"fmt"
	"sort"

	"paperflow/internal/core/domain"
	"paperflow/internal/platform/errors"
)

// dependencyGraph representa el grafo de dependencias entre stages.
type dependencyGraph struct {
	// nodes mapea stage name a su índice en el slice
	nodes map[string]int

	// specs lista ordenada de stages
	specs []domain.StageSpec

	// adjacencyList mapea índice de stage a lista de stages dependientes
	// adjacencyList[A] = [B, C] significa que B y C dependen de A
	adjacencyList map[int][]int

	// inDegree mapea índice de stage a número de dependencias entrantes
	inDegree map[int]int
}

// buildDependencyGraph construye el grafo a partir de los RequiredInputs.
// Inputs que no nombran un stage del plan se ignoran aquí; Validate los
// reporta con más contexto.
func buildDependencyGraph(specs []domain.StageSpec) *dependencyGraph {
	graph := &dependencyGraph{
		nodes:         make(map[string]int, len(specs)),
		specs:         specs,
		adjacencyList: make(map[int][]int),
		inDegree:      make(map[int]int, len(specs)),
	}

	for i, s := range specs {
		graph.nodes[s.Name] = i
		graph.inDegree[i] = 0
	}

	for i, s := range specs {
		for _, in := range s.RequiredInputs {
			j, ok := graph.nodes[in]
			if !ok || i == j {
				continue
			}
			// Arista j -> i (i depende de j)
			graph.adjacencyList[j] = append(graph.adjacencyList[j], i)
			graph.inDegree[i]++
		}
	}

	return graph
}

// levels ejecuta topological sort (Kahn, BFS por niveles). Los stages de un
// mismo nivel no dependen entre sí y podrían correr en paralelo.
func (g *dependencyGraph) levels() ([][]string, error) {
	n := len(g.specs)
	if n == 0 {
		return nil, nil
	}

	current := make(map[int]int, n)
	for i := 0; i < n; i++ {
		current[i] = g.inDegree[i]
	}

	queue := make([]int, 0)
	for i := 0; i < n; i++ {
		if current[i] == 0 {
			queue = append(queue, i)
		}
	}

	var levels [][]string
	processed := 0
	for len(queue) > 0 {
		size := len(queue)
		level := make([]string, 0, size)

		for i := 0; i < size; i++ {
			idx := queue[0]
			queue = queue[1:]

			level = append(level, g.specs[idx].Name)
			processed++

			for _, dep := range g.adjacencyList[idx] {
				current[dep]--
				if current[dep] == 0 {
					queue = append(queue, dep)
				}
			}
		}

		sort.Strings(level)
		levels = append(levels, level)
	}

	if processed != n {
		var cycle []string
		for i := 0; i < n; i++ {
			if current[i] > 0 {
				cycle = append(cycle, g.specs[i].Name)
			}
		}
		return nil, errors.Coordination("plan.levels", fmt.Sprintf("circular dependency detected involving stages: %v", cycle))
	}

	return levels, nil
}

// DependencyLevels agrupa los stages del plan por nivel de dependencia.
func (p Plan) DependencyLevels() ([][]string, error) {
	return buildDependencyGraph(p.Stages()).levels()
}
