// Package rulesets loads per-organization category rulesets from a
// YAML catalog and falls back to a built-in catalog when no file is
// configured.
package rulesets

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/epsflow/radicador/internal/core/domain"
)

type catalogFile struct {
	Rulesets []domain.Ruleset `yaml:"rulesets"`
}

// Catalog resolves organization names to rulesets. Lookup is
// case-insensitive; category order inside each ruleset is preserved
// because it doubles as match priority.
type Catalog struct {
	byOrg map[string]domain.Ruleset
}

// Load reads a catalog from path. An empty path yields the built-in
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "read ruleset catalog", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "parse ruleset catalog", err)
	}
	cat, err := newCatalog(file.Rulesets)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "validate ruleset catalog", err)
	}
	return cat, nil
}

func newCatalog(list []domain.Ruleset) (*Catalog, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("catalog has no rulesets")
	}
	byOrg := make(map[string]domain.Ruleset, len(list))
	for i, rs := range list {
		if err := rs.Validate(); err != nil {
			return nil, fmt.Errorf("ruleset %d: %w", i, err)
		}
		key := strings.ToLower(rs.Organization)
		if _, dup := byOrg[key]; dup {
			return nil, fmt.Errorf("duplicate organization %q", rs.Organization)
		}
		byOrg[key] = rs
	}
	return &Catalog{byOrg: byOrg}, nil
}

func (c *Catalog) ByOrganization(name string) (domain.Ruleset, error) {
	rs, ok := c.byOrg[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return domain.Ruleset{}, domain.WrapError(
			domain.ErrConfig,
			"resolve organization ruleset",
			fmt.Errorf("unknown organization %q, known: %s", name, strings.Join(c.Organizations(), ", ")),
		)
	}
	return rs, nil
}

// Organizations lists the known organization names, sorted.
func (c *Catalog) Organizations() []string {
	names := make([]string, 0, len(c.byOrg))
	for _, rs := range c.byOrg {
		names = append(names, rs.Organization)
	}
	sort.Strings(names)
	return names
}

// DefaultCatalog returns the catalog shipped with the binary. Keywords
// are authored with their natural accents; matching normalizes both
// sides, so diacritics never decide a match.
func DefaultCatalog() *Catalog {
	cat, err := newCatalog(defaultRulesets())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog invalid: %v", err))
	}
	return cat
}

func defaultRulesets() []domain.Ruleset {
	invoice := domain.Category{Name: "FACTURA", Keywords: []string{
		"factura electrónica de venta",
		"factura de venta",
		"representación gráfica factura",
	}}
	receipt := domain.Category{Name: "RECIBO", Keywords: []string{
		"recibo de caja",
		"comprobante de pago",
		"recibo oficial de pago",
	}}
	authorization := domain.Category{Name: "AUTORIZACION", Keywords: []string{
		"autorización de servicios",
		"número de autorización",
		"autorización no",
	}}
	record := domain.Category{Name: "HISTORIA CLINICA", Keywords: []string{
		"historia clínica",
		"epicrisis",
		"resumen de atención",
		"nota de evolución",
	}}
	order := domain.Category{Name: "ORDEN MEDICA", Keywords: []string{
		"orden médica",
		"orden de servicio",
		"prescripción médica",
	}}
	results := domain.Category{Name: "RESULTADOS", Keywords: []string{
		"resultados de laboratorio",
		"laboratorio clínico",
		"informe de resultados",
		"reporte de exámenes",
	}}

	return []domain.Ruleset{
		{
			Organization: "NUEVA EPS",
			Categories:   []domain.Category{invoice, receipt, authorization, record, order, results},
		},
		{
			Organization: "SURA",
			Categories:   []domain.Category{invoice, authorization, record, order, results, receipt},
		},
		{
			Organization: "SALUD TOTAL",
			Categories:   []domain.Category{invoice, receipt, authorization, record, results},
		},
		{
			Organization: "SANITAS",
			// Batches from this payer scan noisier than the rest.
			Threshold:  85,
			Categories: []domain.Category{invoice, authorization, record, order},
		},
		{
			Organization: "COOSALUD",
			Categories:   []domain.Category{invoice, record, authorization},
		},
	}
}
