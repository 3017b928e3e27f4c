// Package es 维护医疗机构目录索引（geo_point），在未配置 Places API 时作为附近机构的数据源。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"medimate-go/internal/config"
	"medimate-go/pkg/log"
)

// FacilityDoc 是索引中的一条机构文档。
type FacilityDoc struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone,omitempty"`
	Location GeoPoint `json:"location"`
}

// GeoPoint 对应 ES 的 geo_point 对象格式。
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Directory 是机构目录的读写接口。
type Directory interface {
	Index(ctx context.Context, doc FacilityDoc) error
	Nearby(ctx context.Context, lat, lng float64, radiusMeters int, types []string) ([]FacilityDoc, error)
}

type esDirectory struct {
	client *elasticsearch.Client
	index  string
}

const facilityMapping = `{
	"mappings": {
		"properties": {
			"id":       { "type": "keyword" },
			"name":     { "type": "text", "fields": { "raw": { "type": "keyword" } } },
			"type":     { "type": "keyword" },
			"address":  { "type": "text" },
			"phone":    { "type": "keyword" },
			"location": { "type": "geo_point" }
		}
	}
}`

// NewDirectory 创建 ES 客户端并确保索引存在。
func NewDirectory(cfg config.ElasticsearchConfig) (Directory, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(cfg.Addresses, ","),
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, err
	}
	d := &esDirectory{client: client, index: cfg.IndexName}
	if err := d.createIndexIfNotExists(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *esDirectory) createIndexIfNotExists(ctx context.Context) error {
	res, err := d.client.Indices.Exists([]string{d.index}, d.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引是否存在时出错: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = d.client.Indices.Create(d.index,
		d.client.Indices.Create.WithBody(strings.NewReader(facilityMapping)),
		d.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", d.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引时 Elasticsearch 返回错误: %s", res.String())
	}
	log.Infof("索引 '%s' 创建成功", d.index)
	return nil
}

// Index 写入或覆盖一条机构文档。
func (d *esDirectory) Index(ctx context.Context, doc FacilityDoc) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      d.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(b),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("索引机构文档出错: %s", res.String())
		return errors.New("failed to index facility")
	}
	return nil
}

// Nearby 查询半径内指定类别的机构，按距离升序返回。
func (d *esDirectory) Nearby(ctx context.Context, lat, lng float64, radiusMeters int, types []string) ([]FacilityDoc, error) {
	query := map[string]interface{}{
		"size": 20,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"terms": map[string]interface{}{"type": types}},
					map[string]interface{}{"geo_distance": map[string]interface{}{
						"distance": fmt.Sprintf("%dm", radiusMeters),
						"location": GeoPoint{Lat: lat, Lon: lng},
					}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"_geo_distance": map[string]interface{}{
				"location": GeoPoint{Lat: lat, Lon: lng},
				"order":    "asc",
				"unit":     "km",
			}},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := d.client.Search(
		d.client.Search.WithContext(ctx),
		d.client.Search.WithIndex(d.index),
		d.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search facilities: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search facilities: %s", res.String())
	}

	var body struct {
		Hits struct {
			Hits []struct {
				Source FacilityDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	out := make([]FacilityDoc, 0, len(body.Hits.Hits))
	for _, h := range body.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
