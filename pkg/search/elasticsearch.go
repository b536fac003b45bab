// Package search 封装 Elasticsearch，为人员和目录提供可选的全文检索后端。
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

// maxWindow 是 limit <= 0 时单次检索的最大返回数（ES 默认 max_result_window）。
const maxWindow = 10000

// Document 是写入索引的一篇内容。
type Document struct {
	PostID   uint   `json:"post_id"`
	PostType string `json:"post_type"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Client 是 Elasticsearch 检索客户端，所有文章类型共用一个索引，按 post_type 过滤。
type Client struct {
	es    *elasticsearch.Client
	index string
}

func NewClient(addresses []string, username, password, index string) (*Client, error) {
	if len(addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are required")
	}
	if index == "" {
		return nil, fmt.Errorf("elasticsearch index is required")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, index: index}, nil
}

// Ping 检查集群是否可达，用于 /health。
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// EnsureIndex 在索引不存在时按固定 mapping 创建。
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := `{
  "mappings": {
    "properties": {
      "post_id":   {"type": "long"},
      "post_type": {"type": "keyword"},
      "title":     {"type": "text"},
      "content":   {"type": "text"}
    }
  }
}`
	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", c.index, readError(res.Body))
	}
	return nil
}

// Index 通过 bulk 接口写入文档，文档 id 为 post id。
func (c *Client) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]map[string]string{
			"index": {"_index": c.index, "_id": strconv.FormatUint(uint64(doc.PostID), 10)},
		}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithIndex(c.index),
		c.es.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", readError(res.Body))
	}

	var body struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if body.Errors {
		return fmt.Errorf("bulk index: some documents failed")
	}
	return nil
}

// SearchIDs 在 title/content 上做全文匹配，返回按相关度排序的 post id。
func (c *Client) SearchIDs(ctx context.Context, postType, term string, limit int) ([]uint, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []uint{}, nil
	}
	if limit <= 0 || limit > maxWindow {
		limit = maxWindow
	}

	query := map[string]interface{}{
		"size":    limit,
		"_source": []string{"post_id"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"post_type": postType}},
				},
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":  term,
							"fields": []string{"title^3", "content"},
						},
					},
				},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", readError(res.Body))
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Source struct {
					PostID uint `json:"post_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uint, 0, len(body.Hits.Hits))
	for _, h := range body.Hits.Hits {
		if h.Source.PostID != 0 {
			ids = append(ids, h.Source.PostID)
		}
	}
	return ids, nil
}

func readError(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(data)
}
