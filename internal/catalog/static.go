package catalog

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hollowshade/wavecore/internal/wave/domain"
)

//go:embed data/monsters.json
var dataFS embed.FS

// monsterRow is the on-disk shape of one catalog entry.
type monsterRow struct {
	Region  string `json:"region"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Tier    int    `json:"tier"`
	Hearts  int    `json:"hearts"`
	Faction string `json:"faction"`
	Rank    string `json:"rank"`
}

// Static serves monster templates from the embedded bestiary.
type Static struct {
	byRegion map[string][]domain.MonsterTemplate
}

// NewStatic loads and validates the embedded catalog.
func NewStatic() (*Static, error) {
	payload, err := dataFS.ReadFile("data/monsters.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}

	var rows []monsterRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	byRegion := make(map[string][]domain.MonsterTemplate)
	for i, row := range rows {
		rank := domain.Rank(row.Rank)
		if rank == "" {
			rank = domain.RankBasic
		}
		template := domain.MonsterTemplate{
			Name:       row.Name,
			SpeciesKey: row.Species,
			Tier:       row.Tier,
			BaseHearts: row.Hearts,
			Faction:    row.Faction,
			Rank:       rank,
		}
		if err := template.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, row.Name, err)
		}
		region := strings.ToLower(strings.TrimSpace(row.Region))
		if region == "" {
			return nil, fmt.Errorf("catalog entry %d (%s): region is required", i, row.Name)
		}
		byRegion[region] = append(byRegion[region], template)
	}

	return &Static{byRegion: byRegion}, nil
}

// ListByRegion returns the templates for a region, or ErrUnknownRegion.
func (s *Static) ListByRegion(ctx context.Context, regionKey string) ([]domain.MonsterTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	templates, ok := s.byRegion[strings.ToLower(strings.TrimSpace(regionKey))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, regionKey)
	}

	// Callers may reorder; hand out a copy.
	out := make([]domain.MonsterTemplate, len(templates))
	copy(out, templates)
	return out, nil
}

// Regions returns the region keys present in the catalog.
func (s *Static) Regions() []string {
	regions := make([]string, 0, len(s.byRegion))
	for region := range s.byRegion {
		regions = append(regions, region)
	}
	return regions
}
