package dto

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type HealthResponse struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	DB        string   `json:"db"`
	Plugins   []string `json:"plugins"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateMetadataRequest struct {
	Metadata map[string]string `json:"metadata"`
}
