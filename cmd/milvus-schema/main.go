package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"doc-chat-backend/config"
)

const (
	int64Type       = "Int64"
	floatVectorType = "FloatVector"
	varcharType     = "VarChar"

	collectionDocChunk          = "doc_chunk"
	collectionReferenceQuestion = "reference_question"
)

type CreateCollectionRequest struct {
	CollectionName string         `json:"collectionName"`
	Schema         *Schema        `json:"schema"`
	IndexParams    []*IndexParams `json:"indexParams"`
}

type Schema struct {
	AutoID             bool     `json:"autoId"`
	EnableDynamicField bool     `json:"enableDynamicField"`
	Fields             []*Field `json:"fields"`
}

type Field struct {
	FieldName         string            `json:"fieldName"`
	DataType          string            `json:"dataType"`
	ElementTypeParams map[string]string `json:"elementTypeParams"`
	IsPrimary         bool              `json:"isPrimary,omitempty"`
}

type IndexParams struct {
	MetricType string            `json:"metricType"`
	FieldName  string            `json:"fieldName"`
	IndexName  string            `json:"indexName"`
	Params     map[string]string `json:"params"`
}

func main() {
	cfg := config.MustLoad()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dim := fmt.Sprintf("%d", cfg.Model.EmbeddingDim)

	collections := []*CreateCollectionRequest{
		docChunkCollection(dim),
		referenceQuestionCollection(dim),
	}

	for _, collection := range collections {
		if err := createCollection(ctx, cfg, collection); err != nil {
			slog.Error("Failed to create collection",
				"collection", collection.CollectionName,
				"err", err)
			os.Exit(1)
		}
		slog.Info("Collection created", "collection", collection.CollectionName)
	}
}

func docChunkCollection(dim string) *CreateCollectionRequest {
	return &CreateCollectionRequest{
		CollectionName: collectionDocChunk,
		Schema: &Schema{
			AutoID: true,
			Fields: []*Field{
				{
					FieldName: "id",
					DataType:  int64Type,
					IsPrimary: true,
				},
				{
					FieldName:         "vector",
					DataType:          floatVectorType,
					ElementTypeParams: map[string]string{"dim": dim},
				},
				{
					FieldName:         "text",
					DataType:          varcharType,
					ElementTypeParams: map[string]string{"max_length": "8192"},
				},
				{
					FieldName:         "document_id",
					DataType:          varcharType,
					ElementTypeParams: map[string]string{"max_length": "64"},
				},
				{
					FieldName:         "conversation_id",
					DataType:          varcharType,
					ElementTypeParams: map[string]string{"max_length": "64"},
				},
				{
					FieldName:         "file_name",
					DataType:          varcharType,
					ElementTypeParams: map[string]string{"max_length": "512"},
				},
			},
		},
		IndexParams: []*IndexParams{
			{
				MetricType: "COSINE",
				FieldName:  "vector",
				IndexName:  "vector_index",
				Params:     map[string]string{"index_type": "AUTOINDEX"},
			},
		},
	}
}

func referenceQuestionCollection(dim string) *CreateCollectionRequest {
	return &CreateCollectionRequest{
		CollectionName: collectionReferenceQuestion,
		Schema: &Schema{
			AutoID: true,
			Fields: []*Field{
				{
					FieldName: "id",
					DataType:  int64Type,
					IsPrimary: true,
				},
				{
					FieldName:         "vector",
					DataType:          floatVectorType,
					ElementTypeParams: map[string]string{"dim": dim},
				},
				{
					FieldName:         "question_id",
					DataType:          varcharType,
					ElementTypeParams: map[string]string{"max_length": "64"},
				},
				{
					FieldName:         "question",
					DataType:          varcharType,
					ElementTypeParams: map[string]string{"max_length": "2048"},
				},
			},
		},
		IndexParams: []*IndexParams{
			{
				MetricType: "COSINE",
				FieldName:  "vector",
				IndexName:  "vector_index",
				Params:     map[string]string{"index_type": "AUTOINDEX"},
			},
		},
	}
}

func createCollection(ctx context.Context, cfg *config.Config, collection *CreateCollectionRequest) error {
	url := cfg.Milvus.Endpoint + "/v2/vectordb/collections/create"

	body, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Milvus.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Milvus.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
