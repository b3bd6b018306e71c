package aggregation

// Status is the label every source result and aggregate result carries.
type Status string

const (
	StatusSuccess      Status = "Success"
	StatusOK           Status = "OK"
	StatusError        Status = "Error"
	StatusNotFound     Status = "NotFound"
	StatusBadRequest   Status = "BadRequest"
	StatusUnauthorized Status = "Unauthorized"
)

// IsSuccess reports whether s is one of the success-class labels.
// The weather source reports "OK", the other sources report "Success".
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusOK
}

// Envelope is the uniform wrapper a single source call returns.
// Data is nil unless the call succeeded.
type Envelope struct {
	Message string `json:"message"`
	Status  Status `json:"status"`
	Data    any    `json:"data"`
}

// NewEnvelope wraps a payload. Pass a nil data for results without a payload.
func NewEnvelope(message string, status Status, data any) Envelope {
	return Envelope{
		Message: message,
		Status:  status,
		Data:    data,
	}
}

// Failure builds an envelope without data.
func Failure(message string, status Status) Envelope {
	return Envelope{
		Message: message,
		Status:  status,
	}
}

// HasData reports whether the envelope carries a payload.
func (e Envelope) HasData() bool {
	return e.Data != nil
}

// CountryInfo is the normalized country record.
type CountryInfo struct {
	Name    string `json:"name"`
	Capital string `json:"capitalCity"`
}

// WeatherInfo is the normalized current weather for a city.
type WeatherInfo struct {
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
}

// Article is a single headline.
type Article struct {
	Title string `json:"title"`
}

// NewsInfo is the normalized list of headlines for a query.
type NewsInfo struct {
	Articles []Article `json:"articles"`
}
