package app_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a live server and are skipped when none answers.
// CHATBOT_BASE_URL defaults to http://localhost:8000; DEMO_PASSWORD must
// match the server's.

func baseURL() string {
	if u := os.Getenv("CHATBOT_BASE_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "http://localhost:8000"
}

var client = &http.Client{Timeout: 15 * time.Second}

func skipIfNotRunning(t *testing.T) {
	t.Helper()
	resp, err := (&http.Client{Timeout: 2 * time.Second}).Get(baseURL() + "/health/live")
	if err != nil {
		t.Skipf("chatbot api not reachable at %s: %v", baseURL(), err)
	}
	resp.Body.Close()
}

func demoCredentials(t *testing.T) (string, string) {
	t.Helper()
	password := os.Getenv("DEMO_PASSWORD")
	if password == "" {
		t.Skip("DEMO_PASSWORD not set")
	}
	username := os.Getenv("DEMO_USERNAME")
	if username == "" {
		username = "demo"
	}
	return username, password
}

func login(t *testing.T, username, password string) *http.Response {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := client.PostForm(baseURL()+"/login", form)
	require.NoError(t, err)
	return resp
}

func TestFlow_LoginChatLogs(t *testing.T) {
	skipIfNotRunning(t)
	username, password := demoCredentials(t)

	resp := login(t, username, password)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	require.Equal(t, "bearer", tok.TokenType)

	message := "integration " + time.Now().Format(time.RFC3339Nano)
	req, err := http.NewRequest(http.MethodPost, baseURL()+"/chat", strings.NewReader(`{"message":"`+message+`"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	chatResp, err := client.Do(req)
	require.NoError(t, err)
	defer chatResp.Body.Close()
	require.Equal(t, http.StatusCreated, chatResp.StatusCode)

	var created struct {
		ID    int64  `json:"id"`
		Reply string `json:"reply"`
	}
	require.NoError(t, json.NewDecoder(chatResp.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.NotEmpty(t, created.Reply)

	req, err = http.NewRequest(http.MethodGet, baseURL()+"/chat/logs", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	logsResp, err := client.Do(req)
	require.NoError(t, err)
	defer logsResp.Body.Close()
	require.Equal(t, http.StatusOK, logsResp.StatusCode)

	var logs []struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(logsResp.Body).Decode(&logs))
	require.NotEmpty(t, logs)
	assert.Equal(t, created.ID, logs[len(logs)-1].ID)
	assert.Equal(t, message, logs[len(logs)-1].Message)
}

func TestFlow_WrongPassword(t *testing.T) {
	skipIfNotRunning(t)
	username, password := demoCredentials(t)

	resp := login(t, username, password+"-wrong")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFlow_LogsRequireToken(t *testing.T) {
	skipIfNotRunning(t)

	resp, err := client.Get(baseURL() + "/chat/logs")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
}
