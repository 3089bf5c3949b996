package types

import (
	"fmt"
	"strings"
	"time"
)

// SubjectAll is the sentinel subject ID meaning "across all subjects".
const SubjectAll = "all"

// AggregateFact is one precomputed numeric answer. Facts are created by the
// materializer, read by the query path, and never mutated anywhere else.
type AggregateFact struct {
	Key             string          `json:"key"`
	DataSourceID    string          `json:"data_source_id"`
	AggregationType AggregationType `json:"aggregation_type"`
	Subject         string          `json:"subject"`
	SubjectID       string          `json:"subject_id"`
	Value           float64         `json:"value"`
	Description     string          `json:"description"`
	Embedding       []float32       `json:"embedding,omitempty"`
	LastUpdated     time.Time       `json:"last_updated"`
}

// FactKey builds the deterministic store key for an aggregate fact.
// The same (dataSourceID, aggregationType, subjectID) triple always maps to
// the same key, which is what makes re-materialization an upsert rather
// than an append.
func FactKey(dataSourceID string, aggType AggregationType, subjectID string) string {
	if subjectID == "" {
		subjectID = SubjectAll
	}
	return fmt.Sprintf("%s:%s:%s", dataSourceID, aggType, subjectID)
}

// ParseFactKey splits a store key back into its components.
func ParseFactKey(key string) (dataSourceID string, aggType AggregationType, subjectID string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed fact key: %q", key)
	}
	aggType, err = ParseAggregationType(parts[1])
	if err != nil {
		return "", "", "", err
	}
	return parts[0], aggType, parts[2], nil
}

// Validate checks that a fact is complete enough to store.
func (f *AggregateFact) Validate() error {
	if f.DataSourceID == "" {
		return ErrEmptyDataSourceID
	}
	if f.SubjectID == "" {
		return ErrEmptySubjectID
	}
	if f.Description == "" {
		return ErrEmptyDescription
	}
	if _, err := ParseAggregationType(string(f.AggregationType)); err != nil {
		return err
	}
	return nil
}

// Fresh reports whether the fact is within the freshness window as of now.
func (f *AggregateFact) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(f.LastUpdated) <= window
}
