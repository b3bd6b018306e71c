package aggregation

const (
	MessageAllAggregated = "All data aggregated successfully."
	MessagePartial       = "Some errors occurred. Check internal messages for details."
	MessageRejected      = "An error occurred while processing your request. See internal messages for details."
)

// AggregatedResponse is the merged result of one aggregation request.
// Status and Message are always derived from Aggregate, see Merge and Rejected.
type AggregatedResponse struct {
	Aggregate []Envelope `json:"aggregate"`
	Status    Status     `json:"status"`
	Message   string     `json:"message"`
}

// Merge combines source envelopes in the given order and derives the verdict.
//
// Only the generic StatusError label marks the aggregate as failed. A branch
// returning NotFound or BadRequest does not change the top-level status.
func Merge(results ...Envelope) AggregatedResponse {
	aggregate := make([]Envelope, 0, len(results))
	aggregate = append(aggregate, results...)

	if firstError(aggregate) == nil {
		return AggregatedResponse{
			Aggregate: aggregate,
			Status:    StatusSuccess,
			Message:   MessageAllAggregated,
		}
	}

	return AggregatedResponse{
		Aggregate: aggregate,
		Status:    StatusError,
		Message:   MessagePartial,
	}
}

// Rejected builds the aggregate returned when a request is refused before
// any fan-out: a single envelope carrying message and status.
func Rejected(status Status, message string) AggregatedResponse {
	return AggregatedResponse{
		Aggregate: []Envelope{Failure(message, status)},
		Status:    status,
		Message:   MessageRejected,
	}
}

func firstError(results []Envelope) *Envelope {
	for i := range results {
		if results[i].Status == StatusError {
			return &results[i]
		}
	}
	return nil
}
