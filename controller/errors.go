package controller

import "errors"

var (
	ErrParseRequest = errors.New("failed to parse request")

	ErrCreateDocument    = errors.New("failed to create document")
	ErrDocumentExists    = errors.New("document already exists")
	ErrGetDocumentStatus = errors.New("failed to get document status")

	ErrChatRespond = errors.New("failed to get response")

	ErrCreateConversation      = errors.New("failed to create a conversation")
	ErrConversationNotFound    = errors.New("conversation not found")
	ErrGetConversations        = errors.New("failed to get conversations")
	ErrDeleteConversation      = errors.New("failed to delete a conversation")
	ErrGetConversationMessages = errors.New("failed to get conversation messages")
	ErrUpdateConversationTitle = errors.New("failed to update conversation title")
)
