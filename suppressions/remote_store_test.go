package suppressions

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consulHeaders() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("X-Consul-Index", "1")
	h.Set("X-Consul-LastContact", "0")
	h.Set("X-Consul-KnownLeader", "true")
	return h
}

func TestConsulStoreLoad(t *testing.T) {
	value := base64.StdEncoding.EncodeToString([]byte("GetFee/a\nSubmit/b\n"))
	body := `[{"Key":"ledger/failures","Value":"` + value + `"}]`
	handler, requests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(http.StatusOK, consulHeaders(), []byte(body)))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		store, err := NewConsulStore(strings.TrimPrefix(server.URL, "http://"), "ledger/failures")
		require.NoError(t, err)

		ids, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"GetFee/a", "Submit/b"}, ids)

		r := <-requests
		assert.Equal(t, "GET", r.Request.Method)
		assert.Equal(t, "/v1/kv/ledger/failures", r.Request.URL.Path)
	})
}

func TestConsulStoreLoadMissingKey(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(http.StatusNotFound, consulHeaders(), nil)
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		store, err := NewConsulStore(strings.TrimPrefix(server.URL, "http://"), "ledger/failures")
		require.NoError(t, err)

		ids, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, ids, 0)
	})
}

func TestConsulStoreSave(t *testing.T) {
	handler, requests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(http.StatusOK, consulHeaders(), []byte("true")))
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		store, err := NewConsulStore(strings.TrimPrefix(server.URL, "http://"), "ledger/failures")
		require.NoError(t, err)

		require.NoError(t, store.Save(context.Background(), []string{"GetFee/a"}))

		r := <-requests
		assert.Equal(t, "PUT", r.Request.Method)
		assert.Equal(t, "/v1/kv/ledger/failures", r.Request.URL.Path)
		assert.Equal(t, "GetFee/a\n", string(r.Body))
	})
}

func newTestDynamoDBStore(t *testing.T, endpoint string) *DynamoDBStore {
	t.Setenv("AWS_ACCESS_KEY_ID", "test-key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret")
	store, err := NewDynamoDBStore("harness-table", "failures", "us-west-2", endpoint)
	require.NoError(t, err)
	return store
}

func TestDynamoDBStoreLoad(t *testing.T) {
	body := `{"Item":{"key":{"S":"failures"},"testIDs":{"L":[{"S":"GetFee/a"},{"S":"Submit/b"}]}}}`
	headers := http.Header{"Content-Type": []string{"application/x-amz-json-1.0"}}
	handler, requests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(http.StatusOK, headers, []byte(body)))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		store := newTestDynamoDBStore(t, server.URL)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ids, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"GetFee/a", "Submit/b"}, ids)

		r := <-requests
		assert.Equal(t, "DynamoDB_20120810.GetItem", r.Request.Header.Get("X-Amz-Target"))
		sent := ldvalue.Parse(r.Body)
		assert.Equal(t, "harness-table", sent.GetByKey("TableName").StringValue())
		assert.Equal(t, "failures", sent.GetByKey("Key").GetByKey("key").GetByKey("S").StringValue())
	})
}

func TestDynamoDBStoreSave(t *testing.T) {
	headers := http.Header{"Content-Type": []string{"application/x-amz-json-1.0"}}
	handler, requests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(http.StatusOK, headers, []byte(`{}`)))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		store := newTestDynamoDBStore(t, server.URL)

		require.NoError(t, store.Save(context.Background(), []string{"GetFee/a"}))

		r := <-requests
		assert.Equal(t, "DynamoDB_20120810.PutItem", r.Request.Header.Get("X-Amz-Target"))
		item := ldvalue.Parse(r.Body).GetByKey("Item")
		assert.Equal(t, "GetFee/a", item.GetByKey("testIDs").GetByKey("L").GetByIndex(0).GetByKey("S").StringValue())
	})
}

func TestRedisStoreReportsConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(server.URL, "http://")
	server.Close()

	store := NewRedisStore(addr, "failures")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := store.Load(ctx)
	assert.Error(t, err)
}
