package model

// MessageSelectedDOMContent tags a message carrying a captured HTML fragment.
const MessageSelectedDOMContent = "SELECTED_DOM_CONTENT"

// Message is the payload delivered by the page-selection channel.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
