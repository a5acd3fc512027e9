package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// MeiliClient is a minimal Meilisearch HTTP client satisfying Index.
// Grounded on go-resty/resty/v2 usage from kirbs-btw-spotify-playlist-
// dataset (the one HTTP-client library in the retrieved pack); no
// search-backend client exists anywhere in the examples.
type MeiliClient struct {
	http *resty.Client
}

// NewMeiliClient builds a client against baseURL, authenticating with
// apiKey.
func NewMeiliClient(baseURL, apiKey string) *MeiliClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	return &MeiliClient{http: c}
}

type meiliTaskResponse struct {
	TaskUID int64  `json:"taskUid"`
	Status  string `json:"status"`
}

// AddDocuments upserts items into indexName, keyed by idField.
func (c *MeiliClient) AddDocuments(ctx context.Context, indexName string, items []Document, idField string) (TaskHandle, error) {
	var out meiliTaskResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("primaryKey", idField).
		SetBody(items).
		SetResult(&out).
		Post(fmt.Sprintf("/indexes/%s/documents", indexName))
	if err != nil {
		return nil, fmt.Errorf("meili: add documents to %s: %w", indexName, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("meili: add documents to %s: http %d: %s", indexName, resp.StatusCode(), resp.String())
	}
	return &meiliTask{http: c.http, uid: out.TaskUID}, nil
}

// ConfigureAttributes sets indexName's filterable/searchable lists.
func (c *MeiliClient) ConfigureAttributes(ctx context.Context, indexName string, cfg AttributeConfig) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cfg.Filterable).
		Put(fmt.Sprintf("/indexes/%s/settings/filterable-attributes", indexName))
	if err != nil {
		return fmt.Errorf("meili: configure filterable attributes for %s: %w", indexName, err)
	}
	if resp.IsError() {
		return fmt.Errorf("meili: configure filterable attributes for %s: http %d", indexName, resp.StatusCode())
	}

	resp, err = c.http.R().
		SetContext(ctx).
		SetBody(cfg.Searchable).
		Put(fmt.Sprintf("/indexes/%s/settings/searchable-attributes", indexName))
	if err != nil {
		return fmt.Errorf("meili: configure searchable attributes for %s: %w", indexName, err)
	}
	if resp.IsError() {
		return fmt.Errorf("meili: configure searchable attributes for %s: http %d", indexName, resp.StatusCode())
	}
	return nil
}

// meiliTask polls a Meilisearch task until it leaves the enqueued/
// processing states.
type meiliTask struct {
	http *resty.Client
	uid  int64
}

func (t *meiliTask) Wait(ctx context.Context) (TaskStatus, error) {
	const pollInterval = 500 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TaskPending, ctx.Err()
		case <-ticker.C:
			var out meiliTaskResponse
			resp, err := t.http.R().SetContext(ctx).SetResult(&out).Get(fmt.Sprintf("/tasks/%d", t.uid))
			if err != nil {
				return TaskFailed, fmt.Errorf("meili: poll task %d: %w", t.uid, err)
			}
			if resp.IsError() {
				return TaskFailed, fmt.Errorf("meili: poll task %d: http %d", t.uid, resp.StatusCode())
			}
			switch out.Status {
			case "succeeded":
				return TaskSucceeded, nil
			case "failed", "canceled":
				return TaskFailed, nil
			}
		}
	}
}
