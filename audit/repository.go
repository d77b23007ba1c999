// api/audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const decisionsIndex = "gate-decisions"

type Repository interface {
	RecordDecision(ctx context.Context, decision Decision) error
	QueryDecisions(ctx context.Context, from, to time.Time, outcome string) ([]Decision, error)
}

type ElasticsearchRepository struct {
	esClient *elasticsearch.Client
}

// NewElasticsearchRepository creates a new repository with a given Elasticsearch client URL.
func NewElasticsearchRepository(esURL string) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}
	esClient, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ElasticsearchRepository{esClient: esClient}, nil
}

// RecordDecision indexes a gate decision document.
func (r *ElasticsearchRepository) RecordDecision(ctx context.Context, decision Decision) error {
	data, err := json.Marshal(decision)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      decisionsIndex,
		DocumentID: fmt.Sprintf("%d-%s", decision.Timestamp.UnixNano(), decision.Outcome),
		Body:       strings.NewReader(string(data)),
	}

	res, err := req.Do(ctx, r.esClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}

	return nil
}

// QueryDecisions searches for gate decisions within a time frame, optionally
// filtered by outcome.
func (r *ElasticsearchRepository) QueryDecisions(ctx context.Context, from, to time.Time, outcome string) ([]Decision, error) {
	must := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"timestamp": map[string]interface{}{
					"gte": from.Format(time.RFC3339),
					"lte": to.Format(time.RFC3339),
				},
			},
		},
	}

	if outcome != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"outcome": outcome,
			},
		})
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
	}

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(decisionsIndex),
		r.esClient.Search.WithBody(strings.NewReader(buf.String())),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching documents: %s", res.String())
	}

	var rmap map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&rmap); err != nil {
		return nil, err
	}

	hitsWrapper, ok := rmap["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response: missing hits object")
	}
	hits, ok := hitsWrapper["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search response: missing hits list")
	}

	decisions := make([]Decision, 0, len(hits))
	for _, hit := range hits {
		doc, ok := hit.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected search response: malformed hit")
		}
		data, err := json.Marshal(doc["_source"])
		if err != nil {
			return nil, err
		}
		var decision Decision
		if err := json.Unmarshal(data, &decision); err != nil {
			return nil, fmt.Errorf("failed to decode decision document: %w", err)
		}
		decisions = append(decisions, decision)
	}

	return decisions, nil
}
