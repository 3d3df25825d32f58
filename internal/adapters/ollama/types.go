package ollama

// GenerateRequest represents an Ollama generate API request
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// GenerateResponse represents an Ollama generate API response
// with Response nil when the server omitted the field or sent null
type GenerateResponse struct {
	Model    string  `json:"model"`
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
}

// TagsResponse represents the response from /api/tags
type TagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}
