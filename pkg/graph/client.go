package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	emaildomain "mail-ingest-backend/internal/ingest/domain"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// Subscriptions expire 40 hours after creation or renewal.
const subscriptionLifetime = 40 * time.Hour

// messageSelectFields limits the message GET to the fields the pipeline uses.
const messageSelectFields = "id,subject,bodyPreview,body,from,toRecipients,ccRecipients,sentDateTime,internetMessageId,hasAttachments"

// Client talks to the Microsoft Graph API. Every call takes the bearer token
// explicitly; the client holds no credential state.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	resource    string
	callbackURL string
	clientState string
}

func NewClient(targetUserID, callbackURL, clientState string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		resource:    fmt.Sprintf("users/%s/mailFolders('Inbox')/messages", targetUserID),
		callbackURL: callbackURL,
		clientState: clientState,
	}
}

// Resource returns the mail resource this client watches.
func (c *Client) Resource() string {
	return c.resource
}

type Subscription struct {
	ID                 string `json:"id"`
	ChangeType         string `json:"changeType,omitempty"`
	NotificationURL    string `json:"notificationUrl,omitempty"`
	Resource           string `json:"resource"`
	ExpirationDateTime string `json:"expirationDateTime"`
	ClientState        string `json:"clientState,omitempty"`
}

type subscriptionList struct {
	Value []Subscription `json:"value"`
}

// ListSubscriptions returns every subscription visible to the credential.
func (c *Client) ListSubscriptions(ctx context.Context, token string) ([]Subscription, error) {
	resp, err := c.do(ctx, token, http.MethodGet, c.baseURL+"/subscriptions", nil)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Op: "list subscriptions", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var list subscriptionList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parse subscription list: %w", err)
	}
	return list.Value, nil
}

// FindExisting returns the first subscription whose resource matches the
// watched mailbox, or nil when none exists.
func (c *Client) FindExisting(ctx context.Context, token string) (*Subscription, error) {
	subs, err := c.ListSubscriptions(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].Resource == c.resource {
			return &subs[i], nil
		}
	}
	return nil, nil
}

// DeleteAll removes every subscription visible to the credential. Used only
// during recovery to clear stale state; per-item failures are logged, not
// returned.
func (c *Client) DeleteAll(ctx context.Context, token string) error {
	subs, err := c.ListSubscriptions(ctx, token)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		resp, err := c.do(ctx, token, http.MethodDelete, c.baseURL+"/subscriptions/"+sub.ID, nil)
		if err != nil {
			log.Printf("[Graph] Failed to delete subscription %s: %v", sub.ID, err)
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusNoContent {
			log.Printf("[Graph] Deleted subscription %s", sub.ID)
		} else {
			log.Printf("[Graph] Failed to delete subscription %s: status %d: %s", sub.ID, resp.StatusCode, string(body))
		}
	}
	return nil
}

// CreateSubscription registers a new push subscription for the watched
// mailbox, expiring 40 hours out.
func (c *Client) CreateSubscription(ctx context.Context, token string) (*Subscription, error) {
	payload := Subscription{
		ChangeType:         "created",
		NotificationURL:    c.callbackURL,
		Resource:           c.resource,
		ExpirationDateTime: expiryFromNow(),
		ClientState:        c.clientState,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal subscription: %w", err)
	}

	resp, err := c.do(ctx, token, http.MethodPost, c.baseURL+"/subscriptions", body)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return nil, &ProviderError{Op: "create subscription", StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var sub Subscription
	if err := json.Unmarshal(respBody, &sub); err != nil {
		return nil, fmt.Errorf("parse created subscription: %w", err)
	}
	return &sub, nil
}

// RenewSubscription pushes the subscription's expiration 40 hours forward.
// Renewal failure is routine, so any non-200 response yields false rather
// than an error.
func (c *Client) RenewSubscription(ctx context.Context, token, subscriptionID string) bool {
	patch := map[string]string{"expirationDateTime": expiryFromNow()}
	body, err := json.Marshal(patch)
	if err != nil {
		log.Printf("[Graph] Renewal failed for %s: %v", subscriptionID, err)
		return false
	}

	resp, err := c.do(ctx, token, http.MethodPatch, c.baseURL+"/subscriptions/"+subscriptionID, body)
	if err != nil {
		log.Printf("[Graph] Renewal failed for %s: %v", subscriptionID, err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[Graph] Renewal failed for %s: status %d: %s", subscriptionID, resp.StatusCode, string(respBody))
		return false
	}
	return true
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphMessage struct {
	ID             string           `json:"id"`
	Subject        string           `json:"subject"`
	SentDateTime   string           `json:"sentDateTime"`
	HasAttachments bool             `json:"hasAttachments"`
	From           graphRecipient   `json:"from"`
	CcRecipients   []graphRecipient `json:"ccRecipients"`
	Body           struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

// GetMessage resolves a notification's resource path into a full message via a
// field-limited GET.
func (c *Client) GetMessage(ctx context.Context, token, resource string) (*emaildomain.Message, error) {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, url.Values{"$select": {messageSelectFields}}.Encode())
	resp, err := c.do(ctx, token, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Op: "fetch message", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var msg graphMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	return toDomainMessage(&msg), nil
}

func toDomainMessage(msg *graphMessage) *emaildomain.Message {
	subject := msg.Subject
	if subject == "" {
		subject = "No Subject"
	}
	sender := msg.From.EmailAddress.Address
	if sender == "" {
		sender = "unknown"
	}
	senderName := msg.From.EmailAddress.Name
	if senderName == "" {
		senderName = "Unknown"
	}
	sentTime := msg.SentDateTime
	if sentTime == "" {
		sentTime = "unknown"
	}

	cc := make([]string, 0, len(msg.CcRecipients))
	for _, r := range msg.CcRecipients {
		cc = append(cc, r.EmailAddress.Address)
	}

	return &emaildomain.Message{
		ID:             msg.ID,
		Subject:        subject,
		BodyHTML:       msg.Body.Content,
		SenderAddress:  sender,
		SenderName:     senderName,
		SentTime:       sentTime,
		CC:             cc,
		HasAttachments: msg.HasAttachments,
	}
}

func (c *Client) do(ctx context.Context, token, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

func expiryFromNow() string {
	return time.Now().UTC().Add(subscriptionLifetime).Format(time.RFC3339)
}
