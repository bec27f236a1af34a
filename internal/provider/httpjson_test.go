package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/kenxsak/omniflow-buisness-sub000/internal/errors"
	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

func TestPostJSONDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := postJSON(context.Background(), srv.Client(), srv.URL,
		map[string]string{"Authorization": "Bearer k"},
		map[string]string{"hello": "world"}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestPostJSONNon2xxCarriesBodySnippet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := postJSON(context.Background(), srv.Client(), srv.URL, nil, map[string]string{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestPostFormSetsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sid", user)
		assert.Equal(t, "token", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+1555", r.PostForm.Get("To"))
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	var out struct {
		SID string `json:"sid"`
	}
	form := url.Values{}
	form.Set("To", "+1555")
	err := postForm(context.Background(), srv.Client(), srv.URL, "sid", "token", form, &out)
	require.NoError(t, err)
	assert.Equal(t, "SM1", out.SID)
}

func TestOrderedValuesSortsByKey(t *testing.T) {
	values := orderedValues(map[string]string{"2": "b", "10": "c", "1": "a"})
	// lexicographic key order, matching how templates number params
	assert.Equal(t, []string{"a", "c", "b"}, values)
}

func TestWatiBroadcast(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sendTemplateMessages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result":true}`))
	}))
	defer srv.Close()

	wati := &Wati{HTTP: srv.Client()}
	recipients := []model.Recipient{{Phone: "+1555", Name: "Asha"}}
	result, err := wati.SendBulk(context.Background(),
		map[string]string{"api_key": "k", "endpoint": srv.URL},
		recipients, Message{TemplateName: "welcome", BroadcastName: "blast-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, "welcome", got["template_name"])
	assert.Equal(t, "blast-1", got["broadcast_name"])
}

func TestWatiRejectionIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":false,"info":"template not approved"}`))
	}))
	defer srv.Close()

	wati := &Wati{HTTP: srv.Client()}
	_, err := wati.SendBulk(context.Background(),
		map[string]string{"api_key": "k", "endpoint": srv.URL},
		[]model.Recipient{{Phone: "+1555"}}, Message{TemplateName: "welcome"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template not approved")
}

func TestMissingCredentialIsConfigError(t *testing.T) {
	wati := &Wati{HTTP: http.DefaultClient}
	_, err := wati.SendBulk(context.Background(),
		map[string]string{"api_key": "k"}, // endpoint missing
		[]model.Recipient{{Phone: "+1555"}}, Message{TemplateName: "welcome"})
	require.Error(t, err)
	assert.True(t, appErrors.IsConfig(err))
}
