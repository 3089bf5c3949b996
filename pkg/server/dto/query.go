package dto

import (
	"errors"
	"strings"

	"github.com/soundprediction/aggrego/pkg/rawdata"
	"github.com/soundprediction/aggrego/pkg/types"
)

// MaxQueryLength bounds the accepted question text.
const MaxQueryLength = 4096

// ErrQueryTooLong is returned for question text over MaxQueryLength.
var ErrQueryTooLong = errors.New("query exceeds maximum length")

// QueryRequest asks one free-text question against a data source.
type QueryRequest struct {
	DataSourceID string `json:"data_source_id" binding:"required"`
	Query        string `json:"query"`
}

// Validate performs validation on QueryRequest. An empty query is allowed
// and classified as a low-confidence semantic search.
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.DataSourceID) == "" {
		return errors.New("data_source_id cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// QueryResponse wraps the answer envelope.
type QueryResponse struct {
	Answer *types.AnswerEnvelope `json:"answer"`
}

// MaterializeRequest triggers one materialization pass. An empty type list
// covers the whole catalog.
type MaterializeRequest struct {
	DataSourceID     string                  `json:"data_source_id" binding:"required"`
	AggregationTypes []types.AggregationType `json:"aggregation_types,omitempty"`
}

// Validate performs validation on MaterializeRequest.
func (r *MaterializeRequest) Validate() error {
	if strings.TrimSpace(r.DataSourceID) == "" {
		return errors.New("data_source_id cannot be empty")
	}
	return nil
}

// MaterializeResponse wraps the run report.
type MaterializeResponse struct {
	Report *types.MaterializationReport `json:"report"`
}

// IngestRequest adds raw records to a data source.
type IngestRequest struct {
	DataSourceID string                `json:"data_source_id" binding:"required"`
	Records      []rawdata.SalesRecord `json:"records" binding:"required"`
}

// Validate performs validation on IngestRequest.
func (r *IngestRequest) Validate() error {
	if strings.TrimSpace(r.DataSourceID) == "" {
		return errors.New("data_source_id cannot be empty")
	}
	if len(r.Records) == 0 {
		return errors.New("records cannot be empty")
	}
	for i := range r.Records {
		if strings.TrimSpace(r.Records[i].RecordID) == "" {
			return errors.New("every record needs a record_id")
		}
	}
	return nil
}

// IngestResponse reports how many records were indexed.
type IngestResponse struct {
	Ingested int `json:"ingested"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
