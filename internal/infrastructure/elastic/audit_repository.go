package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-credential-service/internal/domain/entity"
	"github.com/oksasatya/go-credential-service/internal/domain/repository"
)

// AuditRepository indexes account audit events into Elasticsearch.
type AuditRepository struct {
	es    *elasticsearch.Client
	index string
}

func NewAuditRepository(es *elasticsearch.Client, index string) *AuditRepository {
	return &AuditRepository{es: es, index: index}
}

const auditMapping = `{
  "mappings": {
    "properties": {
      "user_id":    {"type": "keyword"},
      "email":      {"type": "keyword"},
      "action":     {"type": "keyword"},
      "ip":         {"type": "ip", "ignore_malformed": true},
      "user_agent": {"type": "text"},
      "metadata":   {"type": "object", "enabled": false},
      "created_at": {"type": "date"}
    }
  }
}`

// EnsureIndex creates the audit index with its mapping if it does not exist.
func (r *AuditRepository) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := esapi.IndicesExistsRequest{Index: []string{r.index}}.Do(c, r.es)
	if err != nil {
		return err
	}
	_ = exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}
	if exists.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es index %s exists check: %s", r.index, exists.Status())
	}

	res, err := esapi.IndicesCreateRequest{Index: r.index, Body: strings.NewReader(auditMapping)}.Do(c, r.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// Another instance may have created it first.
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("es create index %s: %s", r.index, res.Status())
	}
	return nil
}

func auditDocument(ev *entity.AuditEvent) map[string]any {
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return map[string]any{
		"user_id":    ev.UserID,
		"email":      ev.Email,
		"action":     ev.Action,
		"ip":         ev.IP,
		"user_agent": ev.UserAgent,
		"metadata":   ev.Metadata,
		"created_at": created.Format(time.RFC3339Nano),
	}
}

func (r *AuditRepository) Insert(ctx context.Context, ev *entity.AuditEvent) error {
	b, err := json.Marshal(auditDocument(ev))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: r.index, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, r.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", r.index, res.Status())
	}
	return nil
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
