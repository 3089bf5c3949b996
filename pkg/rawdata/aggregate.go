package rawdata

import (
	"fmt"

	"github.com/soundprediction/aggrego/pkg/types"
)

// subjectOf returns the grouping key of a record under an aggregation type.
func subjectOf(r *SalesRecord, aggType types.AggregationType) (id, name string) {
	switch aggType {
	case types.TotalBySubject, types.CountBySubject, types.AverageBySubject:
		return r.ProductID, r.Product
	case types.ByCategory:
		return r.Category, r.Category
	case types.ByDateRange:
		month := r.Date.Format("2006-01")
		return month, month
	}
	return "", ""
}

// measureOf returns the numeric column reduced for an aggregation type.
// count_by_subject sums sold quantities; average_by_subject averages unit
// prices; everything else reduces the row amount.
func measureOf(r *SalesRecord, aggType types.AggregationType) float64 {
	switch aggType {
	case types.CountBySubject:
		return r.Quantity
	case types.AverageBySubject:
		return r.UnitPrice
	default:
		return r.Amount
	}
}

// listSubjects enumerates the distinct subjects of a record set in first-seen
// order.
func listSubjects(records []SalesRecord, aggType types.AggregationType) []Subject {
	seen := make(map[string]bool)
	subjects := make([]Subject, 0)
	for i := range records {
		id, name := subjectOf(&records[i], aggType)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		subjects = append(subjects, Subject{ID: id, Name: name})
	}
	return subjects
}

// aggregate reduces a record set to one value.
func aggregate(records []SalesRecord, aggType types.AggregationType, fn types.AggregationFunction, subjectID string) (float64, error) {
	var sum, min, max float64
	n := 0

	for i := range records {
		id, _ := subjectOf(&records[i], aggType)
		if subjectID != types.SubjectAll && id != subjectID {
			continue
		}

		v := measureOf(&records[i], aggType)
		if n == 0 {
			min, max = v, v
		} else {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		sum += v
		n++
	}

	if n == 0 {
		return 0, fmt.Errorf("%w: %s %s subject=%s", ErrNoRecords, fn, aggType, subjectID)
	}

	switch fn {
	case types.FunctionSum:
		return sum, nil
	case types.FunctionCount:
		return float64(n), nil
	case types.FunctionAvg:
		return sum / float64(n), nil
	case types.FunctionMin:
		return min, nil
	case types.FunctionMax:
		return max, nil
	}
	return 0, fmt.Errorf("unknown aggregation function: %s", fn)
}
