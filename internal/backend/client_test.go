// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return NewClientWithConfig(&ClientConfig{BaseURL: ts.URL + "/", Timeout: 5 * time.Second})
}

// =============================================================================
// TEXT CHAT
// =============================================================================

func TestSendText_Request(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`{"Message":"hi there"}`))
	})

	reply, err := client.SendText(context.Background(), "hello & bye", "session_1", "user_2")
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, ChatPath, got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "hello & bye", q.Get("user_query"))
	assert.Equal(t, "session_1", q.Get("session_id"))
	assert.Equal(t, "user_2", q.Get("user_id"))
	assert.Empty(t, got.Header.Get("x_api_key"))
}

func TestSendText_ReplyKeys(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"capitalized", `{"Message":"A"}`, "A", nil},
		{"lowercase", `{"message":"B"}`, "B", nil},
		{"lowercase wins", `{"message":"B","Message":"A"}`, "B", nil},
		{"neither key", `{"reply":"C"}`, "", ErrInvalidResponse},
		{"not a string", `{"message":42}`, "", ErrInvalidResponse},
		{"not json", `<html>`, "", ErrInvalidResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			})
			reply, err := client.SendText(context.Background(), "q", "s", "u")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, reply)
		})
	}
}

func TestSendText_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.SendText(context.Background(), "q", "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
	assert.NotErrorIs(t, err, ErrConnection)

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
}

func TestSendText_ConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: base, Timeout: time.Second})
	_, err := client.SendText(context.Background(), "q", "s", "u")
	assert.ErrorIs(t, err, ErrConnection)
}

func TestSendText_Timeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.SendText(ctx, "q", "s", "u")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_APIKeyHeader(t *testing.T) {
	var key atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key.Store(r.Header.Get("x_api_key"))
		io.WriteString(w, `{"Message":"ok"}`)
	}))
	defer ts.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: ts.URL, APIKey: "k-123"})
	_, err := client.SendText(context.Background(), "q", "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "k-123", key.Load())
}

func TestClient_RateLimiterHonorsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"Message":"ok"}`)
	})
	client.config.RequestsPerMinute = 1
	client = NewClientWithConfig(client.config)

	_, err := client.SendText(context.Background(), "q", "s", "u")
	require.NoError(t, err)

	// The second request would wait a minute for its token.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.SendText(ctx, "q", "s", "u")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.config.Timeout)
	assert.Nil(t, c.limiter)

	c = NewClientWithConfig(&ClientConfig{BaseURL: "http://h:8000///"})
	assert.Equal(t, "http://h:8000", c.BaseURL())
}

// =============================================================================
// AUDIO CHAT
// =============================================================================

func TestSendAudio_Request(t *testing.T) {
	type upload struct {
		clip        []byte
		contentType string
		formSession string
		formUser    string
		querySess   string
		queryUser   string
	}
	var got upload

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ChatAudioPath, r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		file, header, err := r.FormFile(AudioFieldName)
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		got.clip, _ = io.ReadAll(file)
		got.contentType = header.Header.Get("Content-Type")
		assert.Equal(t, AudioFileName, header.Filename)

		got.formSession = r.MultipartForm.Value["session_id"][0]
		got.formUser = r.MultipartForm.Value["user_id"][0]
		got.querySess = r.URL.Query().Get("session_id")
		got.queryUser = r.URL.Query().Get("user_id")

		io.WriteString(w, `{"text":"hello","message":"hi!","audio_url":"/voice/1.mp3"}`)
	})

	reply, err := client.SendAudio(context.Background(), []byte("RIFF....WAVE"), "session_9", "user_9")
	require.NoError(t, err)

	assert.Equal(t, "hello", reply.Transcript)
	assert.Equal(t, "hi!", reply.Message)
	assert.Equal(t, client.BaseURL()+"/voice/1.mp3", reply.AudioURL)

	assert.Equal(t, []byte("RIFF....WAVE"), got.clip)
	assert.Equal(t, "audio/wav", got.contentType)
	assert.Equal(t, "session_9", got.formSession)
	assert.Equal(t, "user_9", got.formUser)
	assert.Equal(t, "session_9", got.querySess)
	assert.Equal(t, "user_9", got.queryUser)
}

func TestSendAudio_EmptyClipStillUploads(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"text":"","message":"I heard nothing"}`)
	})

	reply, err := client.SendAudio(context.Background(), nil, "s", "u")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, reply.AudioURL)
}

func TestSendAudio_BadBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `not json`)
	})

	_, err := client.SendAudio(context.Background(), []byte("x"), "s", "u")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

// =============================================================================
// URL RESOLUTION
// =============================================================================

func TestResolveAudioURL(t *testing.T) {
	tests := []struct {
		origin string
		in     string
		want   string
	}{
		{"http://h:8000", "/voice/1.mp3", "http://h:8000/voice/1.mp3"},
		{"http://h:8000/", "/voice/1.mp3", "http://h:8000/voice/1.mp3"},
		{"http://h:8000", "voice/1.mp3", "http://h:8000/voice/1.mp3"},
		{"http://h:8000", "http://cdn/x.mp3", "http://cdn/x.mp3"},
		{"http://h:8000", "https://cdn/x.mp3", "https://cdn/x.mp3"},
		{"https://h", "//cdn/x.mp3", "https://cdn/x.mp3"},
		{"http://h:8000", "", ""},
		{"http://h:8000", "   ", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ResolveAudioURL(tc.origin, tc.in), "ResolveAudioURL(%q, %q)", tc.origin, tc.in)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestClientError_Is(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &ClientError{Type: ErrTypeConnection, Message: "backend unreachable", Cause: cause}

	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "backend unreachable: dial tcp: refused", err.Error())
	assert.Equal(t, "connection", err.Type.String())
}
