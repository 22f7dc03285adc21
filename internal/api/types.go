package api

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// actionRequest carries the acting operator for an alert lifecycle call.
type actionRequest struct {
	By string `json:"by"`
}

// actionResponse reports whether a lifecycle transition was applied.
// Illegal transitions are conflicts, not errors (spec'd soft contract).
type actionResponse struct {
	Applied bool   `json:"applied"`
	Status  string `json:"status,omitempty"`
}

// recordedResponse reports how many samples one record call appended.
type recordedResponse struct {
	Recorded int `json:"recorded"`
}

// healthResponse is the GET /api/v1/health body.
type healthResponse struct {
	Status       string `json:"status"`
	Running      bool   `json:"evaluator_running"`
	Rules        int    `json:"rules"`
	Channels     int    `json:"channels"`
	ActiveAlerts int    `json:"active_alerts"`
}
