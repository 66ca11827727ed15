package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
	"github.com/dominikbraun/graph"
)

var ErrInvalidLayout = errors.New("invalid bracket layout")

// StageGraph returns the directed stage graph of a format. Edges follow the
// winner and loser routes plus the links filled by qualifiers. Adding an
// edge that closes a cycle fails, so a returned graph is always acyclic.
func StageGraph(format models.TournamentFormat) (graph.Graph[string, string], error) {
	layout, err := LayoutFor(format)
	if err != nil {
		return nil, err
	}
	return layout.stageGraph()
}

func (l *Layout) stageGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles())
	for _, stage := range l.Stages() {
		if err := g.AddVertex(string(stage)); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, err
		}
	}

	addEdge := func(from, to models.Stage) error {
		if !l.HasStage(to) {
			return fmt.Errorf("%w: %s routes into undeclared stage %s", ErrInvalidLayout, from, to)
		}
		err := g.AddEdge(string(from), string(to))
		switch {
		case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			return nil
		case errors.Is(err, graph.ErrEdgeCreatesCycle):
			return fmt.Errorf("%w: %s -> %s closes a cycle", ErrInvalidLayout, from, to)
		default:
			return err
		}
	}

	for from, routes := range l.routes {
		if !l.HasStage(from) {
			return nil, fmt.Errorf("%w: routes declared for undeclared stage %s", ErrInvalidLayout, from)
		}
		for _, r := range append(append([]route{}, routes.winner...), routes.loser...) {
			if err := addEdge(from, r.to); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range l.feeds {
		if !l.HasStage(f.from) {
			return nil, fmt.Errorf("%w: feed from undeclared stage %s", ErrInvalidLayout, f.from)
		}
		if err := addEdge(f.from, f.to); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Validate checks the layout of format: the stage graph is acyclic, every
// stage but THIRD_PLACE reaches GRAND_FINAL, every route lands inside its
// target stage and no slot is fed by two different routes.
func Validate(format models.TournamentFormat) error {
	layout, err := LayoutFor(format)
	if err != nil {
		return err
	}
	g, err := layout.stageGraph()
	if err != nil {
		return err
	}

	for _, stage := range layout.Stages() {
		if stage == models.StageThirdPlace {
			continue
		}
		reaches := false
		err := graph.DFS(g, string(stage), func(v string) bool {
			if v == string(models.StageGrandFinal) {
				reaches = true
				return true
			}
			return false
		})
		if err != nil {
			return err
		}
		if !reaches {
			return fmt.Errorf("%w: %s: stage %s never reaches %s", ErrInvalidLayout, format, stage, models.StageGrandFinal)
		}
	}

	owners := make(map[Destination]string)
	for from, routes := range layout.routes {
		count := layout.MatchCount(from)
		for order := 1; order <= count; order++ {
			dests := append(resolveAll(routes.winner, order), resolveAll(routes.loser, order)...)
			for _, d := range dests {
				if d.MatchOrder < 1 || d.MatchOrder > layout.MatchCount(d.Stage) {
					return fmt.Errorf("%w: %s: %s#%d routes to %s#%d which does not exist",
						ErrInvalidLayout, format, from, order, d.Stage, d.MatchOrder)
				}
				src := fmt.Sprintf("%s#%d", from, order)
				if prev, taken := owners[d]; taken {
					return fmt.Errorf("%w: %s: slot %+v fed by both %s and %s", ErrInvalidLayout, format, d, prev, src)
				}
				owners[d] = src
			}
		}
	}
	return nil
}

// ValidateAll validates every known format.
func ValidateAll() error {
	var errs []error
	for _, f := range models.AllFormats() {
		if err := Validate(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StageOrder returns the stages of format in a stable topological order,
// which is the order their matches can be played in.
func StageOrder(format models.TournamentFormat) ([]models.Stage, error) {
	layout, err := LayoutFor(format)
	if err != nil {
		return nil, err
	}
	g, err := layout.stageGraph()
	if err != nil {
		return nil, err
	}
	declared := make(map[string]int)
	for i, s := range layout.Stages() {
		declared[string(s)] = i
	}
	sorted, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return declared[a] < declared[b]
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Stage, 0, len(sorted))
	for _, s := range sorted {
		out = append(out, models.Stage(s))
	}
	return out, nil
}
