package processor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nimbus-docs/internal/nimbus_docs/model"
)

type memRecorder struct {
	mu   sync.Mutex
	runs []*model.RunRecord
	err  error
}

func (m *memRecorder) SaveRun(_ context.Context, rec *model.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return m.err
}

func newTestProcessor(rec Recorder) (*Processor, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewProcessor(zap.New(core), nil, rec), logs
}

func TestRun_PassesJSONThrough(t *testing.T) {
	var gotURL, gotMethod, gotCT string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{ "ok" : true }`))
	}))
	defer server.Close()

	rec := &memRecorder{}
	p, _ := newTestProcessor(rec)
	res, err := p.Run(context.Background(), &Request{
		Endpoint:    server.URL + "/y",
		Method:      "put",
		PathValues:  []Param{{"a", "1"}},
		QueryValues: []Param{{"b", "two"}},
		Body:        []byte(`{"name":"n"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, string(res.Body))
	assert.Equal(t, http.StatusOK, res.UpstreamStatus)
	assert.Equal(t, server.URL+"/y?a=1&b=two", res.URL)
	assert.Equal(t, "/y?a=1&b=two", gotURL)
	assert.Equal(t, "PUT", gotMethod)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, `{"name":"n"}`, string(gotBody))

	require.Len(t, rec.runs, 1)
	assert.Equal(t, http.StatusOK, rec.runs[0].Status)
	assert.Equal(t, http.StatusOK, rec.runs[0].UpstreamStatus)
	assert.Empty(t, rec.runs[0].Error)
	assert.NotEmpty(t, rec.runs[0].ID)
}

func TestRun_GetSendsNoBody(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer server.Close()

	p, _ := newTestProcessor(nil)
	res, err := p.Run(context.Background(), &Request{
		Endpoint: server.URL,
		Method:   "get",
		Body:     []byte(`{"ignored":true}`),
	})
	require.NoError(t, err)
	assert.Empty(t, gotBody)
	assert.Equal(t, `[1,2,3]`, string(res.Body))
}

func TestRun_UpstreamErrorStatusWithJSONIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	}))
	defer server.Close()

	rec := &memRecorder{}
	p, _ := newTestProcessor(rec)
	res, err := p.Run(context.Background(), &Request{Endpoint: server.URL, Method: "GET"})
	require.NoError(t, err)
	assert.Equal(t, `{"message":"not found"}`, string(res.Body))
	assert.Equal(t, http.StatusNotFound, res.UpstreamStatus)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, http.StatusOK, rec.runs[0].Status)
	assert.Equal(t, http.StatusNotFound, rec.runs[0].UpstreamStatus)
}

func TestRun_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	rec := &memRecorder{}
	p, logs := newTestProcessor(rec)
	_, err := p.Run(context.Background(), &Request{Endpoint: server.URL, Method: "GET"})
	assert.ErrorIs(t, err, ErrNonJSONResponse)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, http.StatusInternalServerError, rec.runs[0].Status)
	assert.Equal(t, http.StatusBadGateway, rec.runs[0].UpstreamStatus)
	assert.Equal(t, 1, logs.FilterMessage("Error making API call").Len())
}

func TestRun_EmptyResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p, _ := newTestProcessor(nil)
	_, err := p.Run(context.Background(), &Request{Endpoint: server.URL, Method: "DELETE"})
	assert.ErrorIs(t, err, ErrNonJSONResponse)
}

func TestRun_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	rec := &memRecorder{}
	p, logs := newTestProcessor(rec)
	_, err := p.Run(context.Background(), &Request{Endpoint: addr, Method: "GET"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNonJSONResponse)

	require.Len(t, rec.runs, 1)
	assert.Zero(t, rec.runs[0].UpstreamStatus)
	assert.NotEmpty(t, rec.runs[0].Error)
	assert.Equal(t, 1, logs.FilterMessage("Error making API call").Len())
}

func TestRun_InvalidEndpoint(t *testing.T) {
	p, _ := newTestProcessor(nil)
	_, err := p.Run(context.Background(), &Request{Endpoint: "", Method: "GET"})
	assert.Error(t, err)
}

func TestRun_RecorderFailureDoesNotChangeResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	rec := &memRecorder{err: errors.New("mongo down")}
	p, logs := newTestProcessor(rec)
	res, err := p.Run(context.Background(), &Request{Endpoint: server.URL, Method: "GET"})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(res.Body))
	assert.Equal(t, 1, logs.FilterMessage("Failed to save run record").Len())
}
