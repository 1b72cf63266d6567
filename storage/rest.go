package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/awantoch/promptgate/constants"
)

// RESTStore implements KV over the managed backend's PostgREST gateway
// (<backend>/rest/v1/<table>) using the service role key.
type RESTStore struct {
	endpoint   string
	serviceKey string
	client     *http.Client
}

var _ KV = (*RESTStore)(nil)

type restRow struct {
	Key   string          `json:"key,omitempty"`
	Value json.RawMessage `json:"value"`
}

func NewRESTStore(baseURL, serviceKey, table string, client *http.Client) (*RESTStore, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, errors.New("rest store requires backend url and service key")
	}
	if table == "" {
		table = constants.DefaultKVTable
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTStore{
		endpoint:   strings.TrimRight(baseURL, "/") + "/rest/v1/" + url.PathEscape(table),
		serviceKey: serviceKey,
		client:     client,
	}, nil
}

func (s *RESTStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "value")
	q.Set("key", "eq."+key)
	body, err := s.do(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil, "")
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	var rows []restRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("get %q: decode response: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].Value, nil
}

func (s *RESTStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := checkValue(value); err != nil {
		return err
	}
	payload, err := json.Marshal(restRow{Key: key, Value: value})
	if err != nil {
		return err
	}
	if _, err := s.do(ctx, http.MethodPost, s.endpoint, payload, "resolution=merge-duplicates,return=minimal"); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *RESTStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	q := url.Values{}
	q.Set("key", "eq."+key)
	if _, err := s.do(ctx, http.MethodDelete, s.endpoint+"?"+q.Encode(), nil, "return=minimal"); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *RESTStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *RESTStore) do(ctx context.Context, method, target string, payload []byte, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderAPIKey, s.serviceKey)
	req.Header.Set(constants.HeaderAuthorization, "Bearer "+s.serviceKey)
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	if payload != nil {
		req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}
	if prefer != "" {
		req.Header.Set(constants.HeaderPrefer, prefer)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, s.endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
