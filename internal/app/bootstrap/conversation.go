package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/elroble/vendibot/internal/config"
	"github.com/elroble/vendibot/internal/conversation"
	"github.com/elroble/vendibot/internal/notify"
	"github.com/elroble/vendibot/pkg/logging"
)

const memoryQueueBuffer = 256

// BuildQueue returns the conversation job queue: in-memory for single-node
// deployments, SQS when a queue URL is configured.
func BuildQueue(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (conversation.Queue, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseMemoryQueue {
		logger.Info("using in-memory conversation queue")
		return conversation.NewMemoryQueue(memoryQueueBuffer), nil
	}
	if strings.TrimSpace(cfg.ConversationQueueURL) == "" {
		return nil, fmt.Errorf("bootstrap: CONVERSATION_QUEUE_URL is required when the memory queue is disabled")
	}
	logger.Info("using SQS conversation queue", "queue_url", cfg.ConversationQueueURL)
	return conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL), nil
}

// BuildGateway creates the Gemini client and wraps it with retry and
// classification behavior.
func BuildGateway(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*conversation.Gateway, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, fmt.Errorf("bootstrap: GEMINI_API_KEY is required")
	}
	client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create gemini client: %w", err)
	}
	return conversation.NewGateway(client, conversation.GatewayConfig{
		MaxRetries:     cfg.GenMaxRetries,
		BaseDelay:      cfg.GenBaseDelay,
		BackoffFactor:  cfg.GenBackoffFactor,
		RequestTimeout: cfg.GenRequestTimeout,
	}, logger), nil
}

// BuildOrderNotifier wires owner email notifications. Returns nil when
// notifications are disabled or no owner address is configured.
func BuildOrderNotifier(cfg *appconfig.Config, logger *logging.Logger) *notify.OrderNotifier {
	if !cfg.NotifyOnOrder || strings.TrimSpace(cfg.OwnerEmail) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else {
		logger.Warn("sendgrid not configured, order notifications will only be logged")
		sender = notify.NewStubEmailSender(logger)
	}

	return notify.NewOrderNotifier(sender, cfg.OwnerEmail, cfg.StoreName, logger)
}
