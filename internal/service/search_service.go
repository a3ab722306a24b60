// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"salescoach-go/internal/model"
	"salescoach-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// SearchService 接口定义了历史模拟会话的检索操作。
type SearchService interface {
	// SearchSimulations 在用户自己的归档会话中做全文检索。
	SearchSimulations(ctx context.Context, user *model.User, query string, topK int) ([]model.SimulationSearchHit, error)
}

type searchService struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(esClient *elasticsearch.Client, indexName string) SearchService {
	return &searchService{esClient: esClient, indexName: indexName}
}

// SearchSimulations 执行检索。
// 全文匹配转写与目标字段，归属过滤用 user_id 精确项，越权不可能命中。
func (s *searchService) SearchSimulations(ctx context.Context, user *model.User, query string, topK int) ([]model.SimulationSearchHit, error) {
	if topK <= 0 {
		topK = 10
	}
	log.Infof("[SearchService] 检索模拟会话, userID: %d, query: '%s', topK: %d", user.ID, query, topK)

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"transcript_text", "goal"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"user_id": user.ID},
				},
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"transcript_text": map[string]interface{}{
					"fragment_size":       150,
					"number_of_fragments": 1,
				},
			},
		},
		"size": topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source    model.SimulationDocument `json:"_source"`
				Score     float64                  `json:"_score"`
				Highlight struct {
					TranscriptText []string `json:"transcript_text"`
				} `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.SimulationSearchHit, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		snippet := ""
		if len(hit.Highlight.TranscriptText) > 0 {
			snippet = hit.Highlight.TranscriptText[0]
		}
		results = append(results, model.SimulationSearchHit{
			ConversationID: hit.Source.ConversationID,
			AgentName:      hit.Source.AgentName,
			ProductName:    hit.Source.ProductName,
			CallType:       hit.Source.CallType,
			Note:           hit.Source.Note,
			Score:          hit.Score,
			Snippet:        snippet,
		})
	}
	log.Infof("[SearchService] 检索完成, 命中 %d 条", len(results))
	return results, nil
}
