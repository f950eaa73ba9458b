// Package index mirrors leads into Elasticsearch and searches them there.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"lead-crm/internal/common/errors"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "leads"

const defaultSearchSize = 50

const indexMapping = `{
	"mappings": {
		"properties": {
			"name":          {"type": "text"},
			"phone":         {"type": "keyword"},
			"email":         {"type": "keyword"},
			"status":        {"type": "keyword"},
			"qualification": {"type": "keyword"},
			"interestField": {"type": "keyword"},
			"source":        {"type": "keyword"},
			"assignedTo":    {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"jobInterest":   {"type": "keyword"},
			"createdAt":     {"type": "date"},
			"updatedAt":     {"type": "date"}
		}
	}
}`

// Indexer writes leads to a single Elasticsearch index.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "lead-index", "index": index}),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewSearchIndexFailedError(i.index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return errors.NewSearchIndexFailedError(i.index, fmt.Errorf("exists check: %s", res.Status()))
	}

	res, err = i.client.Indices.Create(
		i.index,
		i.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.NewSearchIndexFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchIndexFailedError(i.index, fmt.Errorf("create index: %s", res.String()))
	}

	i.logger.Info("search index created", nil)
	return nil
}

// IndexLead stores lead under its id.
func (i *Indexer) IndexLead(ctx context.Context, lead *models.Lead) error {
	body, err := i.encode(lead)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: lead.ID,
		Body:       body,
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.NewSearchIndexFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchIndexFailedError(i.index, fmt.Errorf("index lead %s: %s", lead.ID, res.String()))
	}

	i.logger.Debug("lead indexed", map[string]interface{}{"leadId": lead.ID})
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Lead `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// searchQuery matches text as a prefix over name, contact and assignee and
// orders hits like the lead list, newest first.
func searchQuery(text string) map[string]interface{} {
	return map[string]interface{}{
		"size": defaultSearchSize,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"type":   "phrase_prefix",
				"fields": []string{"name", "phone", "email", "assignedTo"},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{
				"createdAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"},
			},
		},
	}
}

// Search returns at most 50 leads matching text, newest first.
func (i *Indexer) Search(ctx context.Context, text string) ([]models.Lead, error) {
	body, err := i.encode(searchQuery(text))
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  body,
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, errors.NewSearchIndexFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchIndexFailedError(i.index, fmt.Errorf("search: %s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchIndexFailedError(i.index, err)
	}

	leads := make([]models.Lead, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		leads = append(leads, hit.Source)
	}
	return leads, nil
}

func (i *Indexer) encode(v interface{}) (*bytes.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewSearchIndexFailedError(i.index, fmt.Errorf("encode request: %w", err))
	}
	return bytes.NewReader(data), nil
}
