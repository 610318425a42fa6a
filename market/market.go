// Package market provides read-only percentile benchmarks per
// (clause, stage, region), with graceful fallback to schema-derived
// defaults when no data exists. Lookups never fail: downstream skills need
// a numeric anchor to avoid degenerate proposals.
package market

import (
	"fmt"
	"os"

	"github.com/termdesk/termdesk/schema"
	"gopkg.in/yaml.v3"
)

// Band holds the percentile benchmarks for one numeric field.
type Band struct {
	P25 float64 `yaml:"p25" json:"p25"`
	P50 float64 `yaml:"p50" json:"p50"`
	P75 float64 `yaml:"p75" json:"p75"`
}

// Benchmark maps field name to its percentile band for one clause.
type Benchmark map[string]Band

// Row is one dataset entry keyed by (clause, stage, region). An empty
// region matches any region for that clause and stage.
type Row struct {
	Clause string          `yaml:"clause"`
	Stage  string          `yaml:"stage"`
	Region string          `yaml:"region,omitempty"`
	Fields map[string]Band `yaml:"fields"`
}

// Guidance resolves benchmarks with the order: exact (clause, stage,
// region) -> same clause and stage, any region -> schema-derived band.
type Guidance struct {
	registry *schema.Registry
	rows     map[string]Benchmark
}

// NewGuidance builds a lookup over the given dataset rows.
func NewGuidance(registry *schema.Registry, rows []Row) *Guidance {
	g := &Guidance{
		registry: registry,
		rows:     make(map[string]Benchmark, len(rows)),
	}
	for _, r := range rows {
		bm := make(Benchmark, len(r.Fields))
		for name, band := range r.Fields {
			bm[name] = band
		}
		g.rows[rowKey(r.Clause, r.Stage, r.Region)] = bm
	}
	return g
}

// LoadDataset reads benchmark rows from a YAML file.
func LoadDataset(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read market dataset: %w", err)
	}

	var doc struct {
		Benchmarks []Row `yaml:"benchmarks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse market dataset: %w", err)
	}
	return doc.Benchmarks, nil
}

// Get returns a usable benchmark for every known clause. Numeric fields
// the dataset does not cover get a band derived from the schema bounds.
func (g *Guidance) Get(clauseKey, stage, region string) Benchmark {
	var base Benchmark
	if bm, ok := g.rows[rowKey(clauseKey, stage, region)]; ok {
		base = bm
	} else if bm, ok := g.rows[rowKey(clauseKey, stage, "")]; ok {
		base = bm
	}

	out := make(Benchmark)
	if cs, ok := g.registry.Get(clauseKey); ok {
		for i := range cs.Fields {
			f := &cs.Fields[i]
			if !f.Numeric() {
				continue
			}
			if band, ok := base[f.Name]; ok {
				out[f.Name] = band
				continue
			}
			out[f.Name] = derivedBand(f)
		}
	}
	// Dataset rows may carry fields the schema does not know; keep them so
	// overlay catalogs can use richer datasets.
	for name, band := range base {
		if _, ok := out[name]; !ok {
			out[name] = band
		}
	}
	return out
}

// derivedBand spreads the percentiles evenly over the schema bounds.
func derivedBand(f *schema.FieldSpec) Band {
	span := f.Max - f.Min
	return Band{
		P25: f.Min + 0.25*span,
		P50: f.Min + 0.50*span,
		P75: f.Min + 0.75*span,
	}
}

func rowKey(clause, stage, region string) string {
	return clause + "|" + stage + "|" + region
}
