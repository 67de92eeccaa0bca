// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// Endpoint paths.
const (
	ChatPath      = "/api/chat"
	ChatAudioPath = "/api/chat/audio"

	// AudioFieldName and AudioFileName describe the uploaded clip part.
	AudioFieldName = "audio"
	AudioFileName  = "audio.wav"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// AudioReply is the decoded response of the audio endpoint.
type AudioReply struct {
	// Transcript is the text recognized from the uploaded clip.
	Transcript string
	// Message is the bot reply.
	Message string
	// AudioURL is the synthesized reply clip, already resolved against the
	// backend origin. Empty when the backend sent none.
	AudioURL string
}

type audioReplyJSON struct {
	Text     string `json:"text"`
	Message  string `json:"message"`
	AudioURL string `json:"audio_url"`
}

// =============================================================================
// TEXT CHAT
// =============================================================================

// SendText posts a text query and returns the bot reply.
//
// The reply is read from the "message" key, falling back to "Message".
// A body carrying neither is reported as ErrInvalidResponse.
func (c *Client) SendText(ctx context.Context, query, sessionID, userID string) (string, error) {
	params := url.Values{}
	params.Set("user_query", query)
	params.Set("session_id", sessionID)
	params.Set("user_id", userID)

	endpoint := c.config.BaseURL + ChatPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", classifyTransportError(err)
	}
	return decodeChatReply(body)
}

func decodeChatReply(body []byte) (string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	for _, key := range []string{"message", "Message"} {
		field, ok := raw[key]
		if !ok {
			continue
		}
		var reply string
		if err := json.Unmarshal(field, &reply); err != nil {
			return "", &ClientError{
				Type:    ErrTypeInvalidResponse,
				Message: fmt.Sprintf("reply field %q is not a string", key),
				Cause:   err,
			}
		}
		return reply, nil
	}
	return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "response has no message field"}
}

// =============================================================================
// AUDIO CHAT
// =============================================================================

// SendAudio uploads a recorded clip and returns the transcript, the reply
// and the resolved reply audio URL. An empty clip is still uploaded.
//
// The identifiers are sent both as multipart fields and as query
// parameters.
func (c *Client) SendAudio(ctx context.Context, clip []byte, sessionID, userID string) (*AudioReply, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, AudioFieldName, AudioFileName))
	partHeader.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "create form file", Cause: err}
	}
	if _, err := part.Write(clip); err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "write audio data", Cause: err}
	}
	if err := writer.WriteField("session_id", sessionID); err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "write session_id", Cause: err}
	}
	if err := writer.WriteField("user_id", userID); err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "write user_id", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "close multipart body", Cause: err}
	}

	params := url.Values{}
	params.Set("session_id", sessionID)
	params.Set("user_id", userID)

	endpoint := c.config.BaseURL + ChatAudioPath + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeRequest, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded audioReplyJSON
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseSize)).Decode(&decoded); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return &AudioReply{
		Transcript: decoded.Text,
		Message:    decoded.Message,
		AudioURL:   ResolveAudioURL(c.config.BaseURL, decoded.AudioURL),
	}, nil
}

// =============================================================================
// URL RESOLUTION
// =============================================================================

// ResolveAudioURL makes a backend audio reference absolute.
//
//	""                 -> ""   (no audio)
//	"http://cdn/x.mp3" -> unchanged
//	"/voice/1.mp3"     -> origin + "/voice/1.mp3"
//
// Relative paths without a leading slash are joined with a slash.
func ResolveAudioURL(origin, audioURL string) string {
	audioURL = strings.TrimSpace(audioURL)
	if audioURL == "" {
		return ""
	}

	if u, err := url.Parse(audioURL); err == nil && u.IsAbs() {
		return audioURL
	}
	if strings.HasPrefix(audioURL, "//") {
		scheme := "http"
		if o, err := url.Parse(origin); err == nil && o.Scheme != "" {
			scheme = o.Scheme
		}
		return scheme + ":" + audioURL
	}

	origin = strings.TrimRight(origin, "/")
	if !strings.HasPrefix(audioURL, "/") {
		audioURL = "/" + audioURL
	}
	return origin + audioURL
}
