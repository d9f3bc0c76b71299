package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var errSubjectNotFound = errors.New("schema subject not found")

// SchemaRegistryClient provides minimal interactions with Confluent Schema Registry.
type SchemaRegistryClient struct {
	client *resty.Client
}

// NewSchemaRegistryClient constructs a client with sane defaults.
func NewSchemaRegistryClient(baseURL string) *SchemaRegistryClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/vnd.schemaregistry.v1+json").
		SetTimeout(10 * time.Second)
	return &SchemaRegistryClient{client: c}
}

type schemaIDResponse struct {
	ID int `json:"id"`
}

// EnsureSchema returns the id of the latest schema under subject, registering schema when the
// subject does not exist yet.
func (c *SchemaRegistryClient) EnsureSchema(ctx context.Context, subject string, schema string) (int, error) {
	id, err := c.fetchLatest(ctx, subject)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errSubjectNotFound) {
		return 0, err
	}
	return c.register(ctx, subject, schema)
}

func (c *SchemaRegistryClient) fetchLatest(ctx context.Context, subject string) (int, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("subject", subject).
		Get("/subjects/{subject}/versions/latest")
	if err != nil {
		return 0, fmt.Errorf("schema registry request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return 0, errSubjectNotFound
	}
	if resp.IsError() {
		return 0, fmt.Errorf("schema registry status %d: %s", resp.StatusCode(), resp.String())
	}
	return decodeSchemaID(resp.Body())
}

func (c *SchemaRegistryClient) register(ctx context.Context, subject string, schema string) (int, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/vnd.schemaregistry.v1+json").
		SetPathParam("subject", subject).
		SetBody(map[string]any{
			"schemaType": "JSON",
			"schema":     schema,
		}).
		Post("/subjects/{subject}/versions")
	if err != nil {
		return 0, fmt.Errorf("schema registry request: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("schema registry register status %d: %s", resp.StatusCode(), resp.String())
	}
	return decodeSchemaID(resp.Body())
}

func decodeSchemaID(body []byte) (int, error) {
	var payload schemaIDResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("decode schema registry response: %w", err)
	}
	return payload.ID, nil
}
