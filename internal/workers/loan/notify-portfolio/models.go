package notifyportfolio

import (
	"context"

	"loan-risk-workers/internal/models"
)

// Input is the report summary the process carries after evaluate-loan-batch.
type Input struct {
	BatchID      string              `json:"batchId"`
	BatchName    string              `json:"batchName"`
	Status       models.ReportStatus `json:"status"`
	AverageScore float64             `json:"averageScore"`
	Distribution models.Distribution `json:"distribution"`
	TotalRecords int                 `json:"totalRecords"`
	RecordsSeen  int                 `json:"recordsSeen"`
}

const (
	ChannelEmail = "email"
	ChannelTopic = "topic"

	StatusSent    = "SENT"
	StatusSkipped = "SKIPPED"
)

type Output struct {
	NotificationStatus string   `json:"notificationStatus"`
	Channels           []string `json:"channels"`
	EmailMessageID     string   `json:"emailMessageId,omitempty"`
	TopicMessageID     string   `json:"topicMessageId,omitempty"`
}

// Mailer sends plain-text email.
type Mailer interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

// Publisher publishes to a fan-out topic.
type Publisher interface {
	PublishToTopic(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error)
}
