package classifier

import (
	"strings"

	"github.com/soundprediction/aggrego/pkg/types"
)

// SemanticConfidence is the confidence assigned when no trigger phrase
// matches. Semantic search degrades gracefully to best-effort retrieval,
// so it is the safe default for ambiguous queries.
const SemanticConfidence = 0.7

// hybridCues upgrade a matched aggregation intent to hybrid: the caller
// wants the number plus supporting records.
var hybridCues = []string{"show me the records", "with details", "supporting", "and explain", "with examples"}

// Classifier maps free-text queries to structured intents using ordered
// trigger-phrase groups. It never fails: total ambiguity resolves to a
// semantic intent.
type Classifier struct {
	catalog *Catalog
}

// New creates a classifier over an immutable catalog.
func New(catalog *Catalog) *Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Classifier{catalog: catalog}
}

// Classify interprets a query. The trigger pass walks the catalog's groups
// in declaration order and the first match wins; ties are never rescored,
// so classification is reproducible. Entity extraction is an independent
// second pass over the known subject labels.
func (c *Classifier) Classify(text string) types.QueryIntent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return types.QueryIntent{
			Kind:       types.KindSemantic,
			Entities:   map[string]string{},
			Confidence: 0,
		}
	}

	intent := types.QueryIntent{
		Kind:       types.KindSemantic,
		Entities:   c.extractEntities(normalized),
		Confidence: SemanticConfidence,
	}

	for _, group := range c.catalog.Triggers {
		if !matchesGroup(normalized, group) {
			continue
		}

		intent.Kind = types.KindAggregation
		intent.AggregationFunction = group.Function
		intent.AggregationType = group.Type
		intent.Confidence = group.Confidence

		if containsAny(normalized, hybridCues) {
			intent.Kind = types.KindHybrid
		}
		break
	}

	return intent
}

// extractEntities scans for known subject labels by case-insensitive
// substring match.
func (c *Classifier) extractEntities(normalized string) map[string]string {
	entities := make(map[string]string)
	for _, subject := range c.catalog.Subjects {
		if strings.Contains(normalized, strings.ToLower(subject.Label)) {
			// First label per role wins; later, longer labels do not
			// replace it. Declaration order is the tiebreak here too.
			if _, ok := entities[subject.Role]; !ok {
				entities[subject.Role] = subject.Label
			}
		}
	}
	return entities
}

// SubjectID resolves the extracted entities of an intent to a subject ID
// using the catalog's labels. Queries naming no known subject resolve to
// the all-subjects sentinel.
func (c *Classifier) SubjectID(entities map[string]string) string {
	for _, subject := range c.catalog.Subjects {
		if label, ok := entities[subject.Role]; ok && label == subject.Label {
			return subject.ID
		}
	}
	return types.SubjectAll
}

func matchesGroup(normalized string, group TriggerGroup) bool {
	return containsAny(normalized, group.Phrases)
}

func containsAny(normalized string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}
