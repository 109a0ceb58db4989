package ticker

import (
	"context"
	"strings"

	"whaleflow/logger"
)

// UniverseSource serves the cached perp and spot instrument universes.
type UniverseSource interface {
	FetchPerpUniverse(ctx context.Context) ([]string, error)
	FetchSpotPairs(ctx context.Context) ([]string, error)
}

// Resolution reports where a symbol trades.
type Resolution struct {
	Symbol    string   `json:"symbol"`
	Base      string   `json:"base"`
	Available bool     `json:"available"`
	Perp      bool     `json:"perp"`
	Spot      bool     `json:"spot"`
	SpotPairs []string `json:"spot_pairs,omitempty"`
}

// Resolver tests symbol membership against the instrument universes.
type Resolver struct {
	source UniverseSource
	log    *logger.Log
}

func NewResolver(source UniverseSource) *Resolver {
	return &Resolver{
		source: source,
		log:    logger.GetLogger(),
	}
}

// Resolve normalizes the symbol and checks it against the perp universe and
// the "/"-delimited spot pairs.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (*Resolution, error) {
	base := Normalize(symbol)
	res := &Resolution{Symbol: symbol, Base: base}
	if base == "" {
		return res, nil
	}

	perps, err := r.source.FetchPerpUniverse(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range perps {
		if strings.EqualFold(name, base) {
			res.Perp = true
			break
		}
	}

	pairs, err := r.source.FetchSpotPairs(ctx)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		if pairMatches(pair, base) {
			res.Spot = true
			res.SpotPairs = append(res.SpotPairs, pair)
		}
	}

	res.Available = res.Perp || res.Spot
	r.log.WithComponent("ticker").WithFields(logger.Fields{
		"symbol":    symbol,
		"base":      base,
		"perp":      res.Perp,
		"spot":      res.Spot,
		"available": res.Available,
	}).Debug("symbol resolved")
	return res, nil
}

// Normalize strips perp suffix markers and takes the base token before any
// separator. "SOL-PERP", "sol/usdc" and "SOL_USD" all reduce to "SOL".
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, "-PERP")
	s = strings.TrimSuffix(s, "PERP")
	if i := strings.IndexAny(s, "/-_"); i >= 0 {
		s = s[:i]
	}
	return s
}

// pairMatches tests the base token against one "/"-delimited spot pair:
// exact pair, pair prefix or pair suffix.
func pairMatches(pair, base string) bool {
	p := strings.ToUpper(pair)
	if p == base {
		return true
	}
	left, right, found := strings.Cut(p, "/")
	if !found {
		return false
	}
	return left == base || right == base
}
