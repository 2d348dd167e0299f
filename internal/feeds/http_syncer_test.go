package feeds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSyncer_Sync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"events":[]}`))
	}))
	defer server.Close()

	syncer := NewHTTPSyncer("odds_feed", server.URL)
	assert.Equal(t, "odds_feed", syncer.Name())
	assert.NoError(t, syncer.Sync(context.Background()))
}

func TestHTTPSyncer_SyncWithConsumer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events":[1,2,3]}`))
	}))
	defer server.Close()

	var got string
	syncer := NewHTTPSyncer("odds_feed", server.URL, WithConsumer(func(_ context.Context, body io.Reader) error {
		data, err := io.ReadAll(body)
		got = string(data)
		return err
	}))

	require.NoError(t, syncer.Sync(context.Background()))
	assert.JSONEq(t, `{"events":[1,2,3]}`, got)
}

func TestHTTPSyncer_ConsumerErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	syncer := NewHTTPSyncer("odds_feed", server.URL, WithConsumer(func(_ context.Context, _ io.Reader) error {
		return errors.New("malformed feed")
	}))

	err := syncer.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed ingestion failed")
}

func TestHTTPSyncer_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewHTTPSyncer("odds_feed", server.URL).Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHTTPSyncer_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewHTTPSyncer("odds_feed", server.URL).Sync(ctx)
	assert.Error(t, err)
}
