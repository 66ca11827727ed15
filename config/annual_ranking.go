package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrSeasonNotRanked = errors.New("season has no annual ranking")

// AnnualRanking is the season ranking file:
//
//	seasons:
//	  2026: [101, 102, 103, 104]
//
// Teams are listed best first.
type AnnualRanking struct {
	Seasons map[int][]int `yaml:"seasons"`
}

func LoadAnnualRanking(path string) (*AnnualRanking, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annual ranking: %w", err)
	}
	return ParseAnnualRanking(raw)
}

func ParseAnnualRanking(raw []byte) (*AnnualRanking, error) {
	var r AnnualRanking
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse annual ranking: %w", err)
	}
	for season, teams := range r.Seasons {
		seen := make(map[int]bool, len(teams))
		for _, t := range teams {
			if t <= 0 {
				return nil, fmt.Errorf("annual ranking %d: invalid team id %d", season, t)
			}
			if seen[t] {
				return nil, fmt.Errorf("annual ranking %d: team %d listed twice", season, t)
			}
			seen[t] = true
		}
	}
	return &r, nil
}

// TopTeams returns up to n teams of season, best first.
func (r *AnnualRanking) TopTeams(ctx context.Context, season, n int) ([]int, error) {
	teams, ok := r.Seasons[season]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSeasonNotRanked, season)
	}
	if n > len(teams) {
		n = len(teams)
	}
	return append([]int(nil), teams[:n]...), nil
}
