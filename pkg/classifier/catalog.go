package classifier

import (
	"fmt"
	"os"

	"github.com/soundprediction/aggrego/pkg/types"
	"gopkg.in/yaml.v3"
)

// TriggerGroup maps a set of trigger phrases to an aggregation intent. A
// group matches when any of its phrases occurs in the lowercased query.
type TriggerGroup struct {
	Phrases    []string                  `yaml:"phrases"`
	Function   types.AggregationFunction `yaml:"function"`
	Type       types.AggregationType     `yaml:"type"`
	Confidence float64                   `yaml:"confidence"`
}

// CatalogEntry describes one member of the aggregation catalog: the
// reduction the materializer runs for it and the fixed description template
// rendered for each fact. The template interpolates subject name, subject
// ID and value, in that order.
type CatalogEntry struct {
	Type     types.AggregationType     `yaml:"type"`
	Function types.AggregationFunction `yaml:"function"`
	Template string                    `yaml:"template"`
}

// SubjectLabel is a known entity the classifier scans queries for.
type SubjectLabel struct {
	Role  string `yaml:"role"`
	Label string `yaml:"label"`
	ID    string `yaml:"id"`
}

// Catalog is the process-wide immutable configuration driving
// classification and materialization. Build it once at startup and inject
// it; never mutate it afterwards.
type Catalog struct {
	Entries  []CatalogEntry `yaml:"entries"`
	Triggers []TriggerGroup `yaml:"triggers"`
	Subjects []SubjectLabel `yaml:"subjects"`
}

// Entry returns the catalog entry for an aggregation type.
func (c *Catalog) Entry(aggType types.AggregationType) (*CatalogEntry, error) {
	for i := range c.Entries {
		if c.Entries[i].Type == aggType {
			return &c.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q not in catalog", types.ErrUnknownAggregationType, aggType)
}

// RenderDescription renders the deterministic fact description for a type.
func (c *Catalog) RenderDescription(aggType types.AggregationType, subject, subjectID string, value float64) (string, error) {
	entry, err := c.Entry(aggType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(entry.Template, subject, subjectID, value), nil
}

// DefaultCatalog returns the built-in catalog. Trigger groups are declared
// in priority order; the first matching group wins, even when a later group
// would match more specifically.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Entries: []CatalogEntry{
			{Type: types.TotalBySubject, Function: types.FunctionSum, Template: "Total sales for %s (%s): %.2f"},
			{Type: types.CountBySubject, Function: types.FunctionSum, Template: "Total units sold for %s (%s): %.2f"},
			{Type: types.AverageBySubject, Function: types.FunctionAvg, Template: "Average unit price for %s (%s): %.2f"},
			{Type: types.ByCategory, Function: types.FunctionSum, Template: "Total sales in category %s (%s): %.2f"},
			{Type: types.ByDateRange, Function: types.FunctionSum, Template: "Total sales during %s (%s): %.2f"},
		},
		Triggers: []TriggerGroup{
			{Phrases: []string{"total", "sales"}, Function: types.FunctionSum, Type: types.TotalBySubject, Confidence: 0.85},
			{Phrases: []string{"how many", "units"}, Function: types.FunctionSum, Type: types.CountBySubject, Confidence: 0.9},
			{Phrases: []string{"average", "price"}, Function: types.FunctionAvg, Type: types.AverageBySubject, Confidence: 0.8},
			{Phrases: []string{"category", "categories"}, Function: types.FunctionSum, Type: types.ByCategory, Confidence: 0.75},
			{Phrases: []string{"over time", "by date", "per month", "trend"}, Function: types.FunctionSum, Type: types.ByDateRange, Confidence: 0.75},
		},
	}
}

// WithSubjects returns a copy of the catalog with the given subject labels,
// e.g. the distinct products and categories of a data source.
func (c *Catalog) WithSubjects(subjects []SubjectLabel) *Catalog {
	copy := *c
	copy.Subjects = subjects
	return &copy
}

// LoadCatalog reads a catalog from a YAML file and validates it against the
// closed aggregation-type enumeration.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	catalog := &Catalog{}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	for _, entry := range catalog.Entries {
		if _, err := types.ParseAggregationType(string(entry.Type)); err != nil {
			return nil, fmt.Errorf("catalog entry: %w", err)
		}
	}
	for _, group := range catalog.Triggers {
		if _, err := types.ParseAggregationType(string(group.Type)); err != nil {
			return nil, fmt.Errorf("trigger group: %w", err)
		}
		if len(group.Phrases) == 0 {
			return nil, fmt.Errorf("trigger group for %s has no phrases", group.Type)
		}
	}
	return catalog, nil
}
