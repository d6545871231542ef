package ingest

import (
	"doc-chat-backend/dao"
	"doc-chat-backend/model"
)

// DAODocumentStore DocumentStore的MySQL实现
type DAODocumentStore struct{}

var _ DocumentStore = DAODocumentStore{}

func (DAODocumentStore) GetByDocumentID(documentID string) (*model.Document, error) {
	return dao.GetDocumentByDocumentID(documentID)
}

func (DAODocumentStore) Claim(documentID string) (bool, error) {
	return dao.ClaimDocument(documentID)
}

func (DAODocumentStore) Release(documentID string) error {
	return dao.ReleaseDocumentClaim(documentID)
}

func (DAODocumentStore) Transition(documentID string, from, to model.Status) (bool, error) {
	return dao.TransitionDocumentStatus(documentID, from, to)
}

func (DAODocumentStore) MarkFailed(documentID string, processingError string) error {
	return dao.MarkDocumentFailed(documentID, processingError)
}
