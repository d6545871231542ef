package response

import "time"

type DocumentResponse struct {
	DocumentID      string    `json:"document_id"`
	ConversationID  string    `json:"conversation_id"`
	FileName        string    `json:"file_name"`
	FileType        string    `json:"file_type"`
	Status          string    `json:"status"`
	ProcessingError string    `json:"processing_error,omitempty"`
	Review          bool      `json:"review"`
	CreatedAt       time.Time `json:"created_at"`
}

type GetDocumentStatusResponse struct {
	Documents []DocumentResponse `json:"documents"`
}
