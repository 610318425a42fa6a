// Package utility scores, per party, how close the final terms sit to that
// party's BATNA, weighted by stated clause importance. Scoring is pure and
// total: unknown clauses simply do not contribute, and it never influences
// the solver's choices.
package utility

import (
	"math"

	"github.com/termdesk/termdesk/model"
	"github.com/termdesk/termdesk/schema"
)

// NeutralWeight is assumed for clauses the persona states no weight for.
const NeutralWeight = 0.5

// Engine scores outcomes against a clause catalog.
type Engine struct {
	registry *schema.Registry
}

// NewEngine builds a utility engine over the given catalog.
func NewEngine(registry *schema.Registry) *Engine {
	return &Engine{registry: registry}
}

// Score returns the weighted per-clause utilities and the aggregate score,
// both in [0,100]. Only clauses present in both finalTerms and the
// persona's BATNA enter the aggregate: clauses the party holds no opinion
// on neither help nor hurt its score.
func (e *Engine) Score(p *model.Persona, finalTerms map[string]model.ClauseValue) (map[string]float64, float64) {
	perClause := make(map[string]float64)
	var weightedSum, weightSum float64

	for key, final := range finalTerms {
		batna := p.BATNAFor(key)
		if batna == nil {
			continue
		}
		cs, ok := e.registry.Get(key)
		if !ok {
			continue
		}

		raw := e.clauseUtility(cs, final, batna)
		weight := p.WeightOr(key, NeutralWeight)
		weighted := raw * weight

		perClause[key] = weighted
		weightedSum += weighted
		weightSum += weight
	}

	if weightSum == 0 {
		return perClause, 0
	}
	return perClause, weightedSum / weightSum
}

// clauseUtility averages the per-field utilities of one clause, each in
// [0,100].
func (e *Engine) clauseUtility(cs *schema.ClauseSchema, final, batna model.ClauseValue) float64 {
	var sum float64
	var n int

	for i := range cs.Fields {
		f := &cs.Fields[i]
		fv, hasFinal := final[f.Name]
		bv, hasBATNA := batna[f.Name]
		if !hasFinal || !hasBATNA {
			continue
		}
		sum += fieldUtility(f, fv, bv)
		n++
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// fieldUtility is the distance-based score for one field. Numeric and
// ordinal-enum fields decay linearly with distance from the BATNA over the
// schema range; nominal fields are all-or-nothing.
func fieldUtility(f *schema.FieldSpec, final, batna any) float64 {
	switch {
	case f.Numeric():
		fn, fok := model.NumberValue(final)
		bn, bok := model.NumberValue(batna)
		if !fok || !bok {
			return 0
		}
		distance := math.Abs(fn - bn)
		return 100 * math.Max(0, 1-distance/f.Range())

	case f.Kind == schema.FieldEnum && f.Ordinal:
		fs, fok := model.StringValue(final)
		bs, bok := model.StringValue(batna)
		if !fok || !bok {
			return 0
		}
		fi, bi := f.AllowedIndex(fs), f.AllowedIndex(bs)
		if fi < 0 || bi < 0 {
			return 0
		}
		span := float64(len(f.Allowed) - 1)
		if span < 1 {
			span = 1
		}
		distance := math.Abs(float64(fi - bi))
		return 100 * math.Max(0, 1-distance/span)

	default:
		// Boolean and nominal enum: exact match or nothing.
		if final == batna {
			return 100
		}
		return 0
	}
}
