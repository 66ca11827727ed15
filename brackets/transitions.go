package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/bracket-engine/models"
)

var (
	ErrUnknownFormat = errors.New("unknown tournament format")
	ErrUnknownStage  = errors.New("stage is not part of the tournament format")
)

// Destination is the slot a winner or loser is routed into.
type Destination struct {
	Stage      models.Stage `json:"stage"`
	MatchOrder int          `json:"match_order"`
	IsHome     bool         `json:"is_home"`
}

type orderRule int

const (
	sameOrder   orderRule = iota
	halfOrder             // (order+1)/2, pairs of matches merge
	firstOrder            // always match 1
	mirrorOrder           // 1<->2
)

type sideRule int

const (
	toHome sideRule = iota
	toAway
	homeIfOdd
	homeIfFirst
)

type route struct {
	to    models.Stage
	order orderRule
	side  sideRule
}

func (r route) resolve(order int) Destination {
	d := Destination{Stage: r.to}
	switch r.order {
	case sameOrder:
		d.MatchOrder = order
	case halfOrder:
		d.MatchOrder = (order + 1) / 2
	case firstOrder:
		d.MatchOrder = 1
	case mirrorOrder:
		d.MatchOrder = 3 - order
	}
	switch r.side {
	case toHome:
		d.IsHome = true
	case toAway:
		d.IsHome = false
	case homeIfOdd:
		d.IsHome = order%2 == 1
	case homeIfFirst:
		d.IsHome = order == 1
	}
	return d
}

type stageRoutes struct {
	winner []route
	loser  []route
}

func goTo(stage models.Stage, order orderRule, side sideRule) route {
	return route{to: stage, order: order, side: side}
}

// WinnerDestinations returns where the winner of (stage, order) goes next.
// A stage declared by the format with no route is terminal and yields nil.
func WinnerDestinations(format models.TournamentFormat, stage models.Stage, order int) ([]Destination, error) {
	routes, err := lookupRoutes(format, stage)
	if err != nil {
		return nil, err
	}
	return resolveAll(routes.winner, order), nil
}

// LoserDestinations returns where the loser of (stage, order) goes next.
func LoserDestinations(format models.TournamentFormat, stage models.Stage, order int) ([]Destination, error) {
	routes, err := lookupRoutes(format, stage)
	if err != nil {
		return nil, err
	}
	return resolveAll(routes.loser, order), nil
}

func lookupRoutes(format models.TournamentFormat, stage models.Stage) (stageRoutes, error) {
	layout, err := LayoutFor(format)
	if err != nil {
		return stageRoutes{}, err
	}
	if !layout.HasStage(stage) {
		return stageRoutes{}, fmt.Errorf("%w: %s in %s", ErrUnknownStage, stage, format)
	}
	return layout.routes[stage], nil
}

func resolveAll(routes []route, order int) []Destination {
	if len(routes) == 0 {
		return nil
	}
	out := make([]Destination, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.resolve(order))
	}
	return out
}
