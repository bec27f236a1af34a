package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenxsak/omniflow-buisness-sub000/internal/model"
)

func brevoCampaignServer(t *testing.T, gotFolder *float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contacts/lists":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			*gotFolder = body["folderId"].(float64)
			w.Write([]byte(`{"id":11}`))
		case "/contacts/import":
			w.Write([]byte(`{"processId":1}`))
		case "/emailCampaigns":
			w.Write([]byte(`{"id":42}`))
		case "/emailCampaigns/42/sendNow":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestBrevoCampaignUsesConfiguredFolder(t *testing.T) {
	var gotFolder float64
	srv := brevoCampaignServer(t, &gotFolder)
	defer srv.Close()

	brevo := &Brevo{HTTP: srv.Client(), Base: srv.URL}
	recipients := []model.Recipient{{Email: "a@example.com", Name: "A"}, {Email: "b@example.com", Name: "B"}}
	result, err := brevo.SendCampaign(context.Background(),
		map[string]string{"api_key": "k", "folder_id": "7"},
		recipients, Message{Subject: "s", Body: "b", FromName: "f", FromEmail: "f@example.com"})
	require.NoError(t, err)
	assert.Equal(t, float64(7), gotFolder)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 0, result.Failed)
}

func TestBrevoCampaignDefaultsToFolderOne(t *testing.T) {
	var gotFolder float64
	srv := brevoCampaignServer(t, &gotFolder)
	defer srv.Close()

	brevo := &Brevo{HTTP: srv.Client(), Base: srv.URL}
	_, err := brevo.SendCampaign(context.Background(),
		map[string]string{"api_key": "k"},
		[]model.Recipient{{Email: "a@example.com"}}, Message{Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, float64(1), gotFolder)
}
