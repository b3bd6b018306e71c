package aggregation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_FirstGenericErrorDecides(t *testing.T) {
	resp := Merge(
		NewEnvelope("Success", StatusSuccess, CountryInfo{Name: "Greece", Capital: "Athens"}),
		Failure("Weather Not found.", StatusNotFound),
		Failure("No news articles found.", StatusError),
	)

	require.Len(t, resp.Aggregate, 3)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, MessagePartial, resp.Message)
	assert.Equal(t, StatusNotFound, resp.Aggregate[1].Status)
}

func TestMerge_Empty(t *testing.T) {
	resp := Merge()

	assert.Empty(t, resp.Aggregate)
	assert.NotNil(t, resp.Aggregate)
	assert.Equal(t, StatusSuccess, resp.Status)
}

func TestStatusIsSuccess(t *testing.T) {
	assert.True(t, StatusSuccess.IsSuccess())
	assert.True(t, StatusOK.IsSuccess())
	assert.False(t, StatusError.IsSuccess())
	assert.False(t, StatusNotFound.IsSuccess())
	assert.False(t, StatusBadRequest.IsSuccess())
	assert.False(t, StatusUnauthorized.IsSuccess())
}

func TestAggregatedResponseJSON(t *testing.T) {
	resp := Merge(
		NewEnvelope("Success", StatusSuccess, CountryInfo{Name: "Greece", Capital: "Athens"}),
		Failure("Weather Not found.", StatusError),
	)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"aggregate": [
			{"message": "Success", "status": "Success", "data": {"name": "Greece", "capitalCity": "Athens"}},
			{"message": "Weather Not found.", "status": "Error", "data": null}
		],
		"status": "Error",
		"message": "Some errors occurred. Check internal messages for details."
	}`, string(raw))
}
