// Package e2e exercises a running search server over HTTP.
//
// Start the server (cmd/searcher) and run:
//
//	E2E_SEARCHER_URL=http://localhost:8080 go test -v ./test/e2e/...
//
// Tests skip when the server is unreachable.
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searcherURL() string {
	if v := os.Getenv("E2E_SEARCHER_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(searcherURL() + "/health/live")
	if err != nil {
		t.Skipf("search server unavailable: %v", err)
	}
	resp.Body.Close()
	return client
}

func getJSON(t *testing.T, client *http.Client, path string, out any) int {
	t.Helper()
	resp, err := client.Get(searcherURL() + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

// uniqueWord returns a letters-only term no other run has indexed.
func uniqueWord() string {
	n := time.Now().UnixNano()
	var b strings.Builder
	b.WriteString("etoe")
	for n > 0 {
		b.WriteByte(byte('a' + n%26))
		n /= 26
	}
	return b.String()
}

func TestHealth(t *testing.T) {
	client := newClient(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, getJSON(t, client, path, nil))
		})
	}
}

func TestAddSearchMatch(t *testing.T) {
	client := newClient(t)
	word := uniqueWord()
	id := int(time.Now().UnixNano() % 1_000_000_000)

	payload := fmt.Sprintf(`{"id":%d,"text":"%s cat","ratings":[4,6]}`, id, word)
	resp, err := client.Post(searcherURL()+"/api/v1/documents", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var search struct {
		Results []struct {
			ID     int `json:"id"`
			Rating int `json:"rating"`
		} `json:"results"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, client, "/api/v1/search?q="+url.QueryEscape(word), &search))
	require.Len(t, search.Results, 1)
	assert.Equal(t, id, search.Results[0].ID)
	assert.Equal(t, 5, search.Results[0].Rating)

	require.Equal(t, http.StatusOK, getJSON(t, client, "/api/v1/search?q="+url.QueryEscape(word+" -cat"), &search))
	assert.Empty(t, search.Results)

	var match struct {
		Terms []string `json:"terms"`
	}
	path := fmt.Sprintf("/api/v1/documents/%d/match?q=%s", id, url.QueryEscape(word+" cat dog"))
	require.Equal(t, http.StatusOK, getJSON(t, client, path, &match))
	assert.Equal(t, []string{"cat", word}, match.Terms)

	resp, err = client.Post(searcherURL()+"/api/v1/documents", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAnalytics(t *testing.T) {
	client := newClient(t)
	var before struct {
		TotalSearches int64 `json:"total_searches"`
	}
	if getJSON(t, client, "/api/v1/analytics", &before) != http.StatusOK {
		t.Skip("analytics disabled")
	}
	getJSON(t, client, "/api/v1/search?q=cat", nil)

	var after struct {
		TotalSearches int64 `json:"total_searches"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, client, "/api/v1/analytics", &after))
	assert.Greater(t, after.TotalSearches, before.TotalSearches)
}
