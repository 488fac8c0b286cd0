package domain

// Notification is a change notification pushed by Microsoft Graph. It points
// at a message resource; it never carries the message itself.
type Notification struct {
	SubscriptionID string `json:"subscriptionId"`
	ChangeType     string `json:"changeType"`
	ClientState    string `json:"clientState"`
	Resource       string `json:"resource"`
}

// NotificationBatch is the POST body Graph delivers to the webhook endpoint.
type NotificationBatch struct {
	Value []Notification `json:"value"`
}

// Message is a fetched email. Transient: it lives only for the duration of one
// ingestion and is never persisted as-is.
type Message struct {
	ID             string
	Subject        string
	BodyHTML       string
	SenderAddress  string
	SenderName     string
	SentTime       string
	CC             []string
	HasAttachments bool
}

// Chunk is a bounded text segment produced from a message body, carrying the
// metadata that gets embedded alongside it.
type Chunk struct {
	Text     string
	Metadata map[string]interface{}
}

// MetadataRecord is the durable per-email entry appended to the shared
// metadata file after a successful ingestion. email_id is the uniqueness key.
type MetadataRecord struct {
	EmailID        string   `json:"email_id"`
	Subject        string   `json:"subject"`
	Sender         string   `json:"sender"`
	SenderName     string   `json:"sender_name"`
	Timestamp      string   `json:"timestamp"`
	CC             []string `json:"cc"`
	HasAttachments bool     `json:"hasAttachments"`
	ChunkCount     int      `json:"chunk_count"`
	IndexPath      string   `json:"index_path"`
	UploadDate     string   `json:"uploadDate"`
}
