// Package catalog supplies read-only monster reference data per region.
//
// The wave generator consumes the Provider interface; the production
// deployment plugs in whatever backs the game's bestiary, while the
// embedded static catalog serves tests and local tooling.
package catalog

import (
	"context"
	"errors"

	"github.com/hollowshade/wavecore/internal/wave/domain"
)

// ErrUnknownRegion indicates the catalog has no data for a region.
var ErrUnknownRegion = errors.New("unknown region")

// Provider lists the monster templates available in a region.
type Provider interface {
	ListByRegion(ctx context.Context, regionKey string) ([]domain.MonsterTemplate, error)
}
