package supportmesh

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashhhwin/supportmesh/a2a"
	"github.com/ashhhwin/supportmesh/config"
	"github.com/ashhhwin/supportmesh/httpapi"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Oracle.Provider = "none"
	return cfg
}

func TestNewWithUnknownProvider(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Oracle.Provider = "palmreader"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "unknown oracle provider")
}

func TestQueryEndToEndWithoutOracle(t *testing.T) {
	// specialist agents in one mesh, router in another pointed at them
	agents, err := New(offlineConfig(t))
	require.NoError(t, err)
	defer agents.Close()

	dataSrv := httptest.NewServer(agents.DataAgent())
	defer dataSrv.Close()
	supportSrv := httptest.NewServer(agents.SupportAgent())
	defer supportSrv.Close()

	cfg := offlineConfig(t)
	cfg.Agents.DataAgentURL = dataSrv.URL
	cfg.Agents.SupportAgentURL = supportSrv.URL

	router, err := New(cfg)
	require.NoError(t, err)
	defer router.Close()

	results := router.Query(context.Background(), 2, "I want my money back")
	require.Len(t, results, 1)
	assert.Equal(t, a2a.IntentRefundRequest, results[0].Intent)
	assert.Equal(t, "ok", results[0].Status)
	assert.True(t, results[0].RequiresEscalation)

	data := results[0].Data.(map[string]any)
	assert.Equal(t, "REF-998877", data["refund_id"])
	assert.Equal(t, "Action processed: Refund initiated successfully.", data["answer_text"])
}

func TestRouterMuxServesQuery(t *testing.T) {
	agents, err := New(offlineConfig(t))
	require.NoError(t, err)
	defer agents.Close()

	supportSrv := httptest.NewServer(agents.SupportAgent())
	defer supportSrv.Close()

	cfg := offlineConfig(t)
	cfg.Agents.SupportAgentURL = supportSrv.URL

	router, err := New(cfg)
	require.NoError(t, err)
	defer router.Close()

	routerSrv := httptest.NewServer(router.Router())
	defer routerSrv.Close()

	body, _ := json.Marshal(httpapi.QueryRequest{CustomerID: 3, Text: "please cancel my subscription"})
	resp, err := http.Post(routerSrv.URL+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out httpapi.QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, a2a.IntentCancelSubscription, out.Results[0].Intent)
}
