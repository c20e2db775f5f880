package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ExpoPushClient sends push notifications via Expo's Push API.
//
// The mobile app registers an Expo push token ("ExponentPushToken[xxx]")
// through the device-tokens endpoint; sending a push is one POST to
// Expo's API with the stored tokens, and Expo handles delivery to both
// iOS and Android.
type ExpoPushClient struct {
	httpClient *http.Client
}

// ExpoPushMessage is the payload for Expo's Push API.
type ExpoPushMessage struct {
	To       []string               `json:"to"`
	Title    string                 `json:"title,omitempty"`
	Body     string                 `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Sound    string                 `json:"sound,omitempty"`
	Priority string                 `json:"priority,omitempty"`
}

// ExpoPushResponse is the response from Expo's API.
type ExpoPushResponse struct {
	Data []ExpoPushTicket `json:"data"`
}

type ExpoPushTicket struct {
	Status  string `json:"status"` // "ok" or "error"
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"` // "DeviceNotRegistered", "MessageTooBig", etc.
	} `json:"details,omitempty"`
}

const expoPushURL = "https://exp.host/--/api/v2/push/send"

func NewExpoPushClient() *ExpoPushClient {
	return &ExpoPushClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendToTokens sends a push notification to multiple Expo push tokens.
// Tokens that don't look like Expo tokens are skipped.
func (c *ExpoPushClient) SendToTokens(tokens []string, title, body string, data map[string]interface{}) error {
	if len(tokens) == 0 {
		return nil
	}

	validTokens := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[") {
			validTokens = append(validTokens, token)
		} else {
			log.Printf("[ExpoPush] Skipping invalid token format: %s", token[:min(20, len(token))])
		}
	}

	if len(validTokens) == 0 {
		log.Printf("[ExpoPush] No valid Expo tokens to send to")
		return nil
	}

	message := ExpoPushMessage{
		To:       validTokens,
		Title:    title,
		Body:     body,
		Sound:    "default",
		Priority: "high",
		Data:     data,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequest("POST", expoPushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("expo api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var pushResp ExpoPushResponse
	if err := json.Unmarshal(respBody, &pushResp); err != nil {
		log.Printf("[ExpoPush] Failed to parse response: %v", err)
		return nil // push was accepted, tickets are just unreadable
	}

	successCount := 0
	failCount := 0
	for i, ticket := range pushResp.Data {
		if ticket.Status == "ok" {
			successCount++
		} else {
			failCount++
			log.Printf("[ExpoPush] Token %d failed: %s (error: %s)",
				i, ticket.Message, ticket.Details.Error)
		}
	}

	log.Printf("[ExpoPush] Sent to %d tokens: %d success, %d failed",
		len(validTokens), successCount, failCount)

	return nil
}

// SendToToken sends a push notification to a single token.
func (c *ExpoPushClient) SendToToken(token, title, body string, data map[string]interface{}) error {
	return c.SendToTokens([]string{token}, title, body, data)
}
