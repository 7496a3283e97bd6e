package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.flac")
	require.NoError(t, os.WriteFile(path, []byte("fLaC-bytes"), 0o600))
	return path
}

func TestDeepgramTranscribe(t *testing.T) {
	var gotAuth, gotContentType, gotPath string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{
			"results": {"channels": [{"alternatives": [{"transcript": "hello world"}]}]}
		}`))
	}))
	defer server.Close()

	backend := NewDeepgram("dg-key")
	backend.BaseURL = server.URL

	text, err := backend.Transcribe(context.Background(), writeAudioFixture(t))
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	require.Equal(t, "Token dg-key", gotAuth)
	require.Equal(t, "audio/flac", gotContentType)
	require.Equal(t, "/v1/listen", gotPath)
	require.Equal(t, []byte("fLaC-bytes"), gotBody)
}

func TestDeepgramHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg": "bad credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	backend := NewDeepgram("bad-key")
	backend.BaseURL = server.URL

	_, err := backend.Transcribe(context.Background(), writeAudioFixture(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
	require.Contains(t, err.Error(), "bad credentials")
}

func TestDeepgramEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {"channels": []}}`))
	}))
	defer server.Close()

	backend := NewDeepgram("dg-key")
	backend.BaseURL = server.URL

	_, err := backend.Transcribe(context.Background(), writeAudioFixture(t))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no transcript")
}

func TestDeepgramMissingAudioFile(t *testing.T) {
	backend := NewDeepgram("dg-key")
	_, err := backend.Transcribe(context.Background(), filepath.Join(t.TempDir(), "absent.flac"))
	require.Error(t, err)
}
