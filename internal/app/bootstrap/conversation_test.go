package bootstrap

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	appconfig "github.com/elroble/vendibot/internal/config"
	"github.com/elroble/vendibot/pkg/logging"
)

func TestBuildQueueMemory(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: true}

	queue, err := BuildQueue(cfg, aws.Config{}, logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queue == nil {
		t.Fatalf("expected a queue")
	}
}

func TestBuildQueueSQSRequiresURL(t *testing.T) {
	cfg := &appconfig.Config{UseMemoryQueue: false}

	if _, err := BuildQueue(cfg, aws.Config{}, logging.New("error")); err == nil {
		t.Fatalf("expected error without a queue url")
	}
}

func TestBuildGatewayRequiresAPIKey(t *testing.T) {
	cfg := &appconfig.Config{}

	if _, err := BuildGateway(context.Background(), cfg, logging.New("error")); err == nil {
		t.Fatalf("expected error without an api key")
	}
}

func TestBuildOrderNotifierDisabled(t *testing.T) {
	cfg := &appconfig.Config{NotifyOnOrder: false, OwnerEmail: "owner@elroble.co"}
	if n := BuildOrderNotifier(cfg, logging.New("error")); n != nil {
		t.Fatalf("expected nil notifier when disabled")
	}

	cfg = &appconfig.Config{NotifyOnOrder: true}
	if n := BuildOrderNotifier(cfg, logging.New("error")); n != nil {
		t.Fatalf("expected nil notifier without owner email")
	}
}

func TestBuildOrderNotifierStubWithoutSendGrid(t *testing.T) {
	cfg := &appconfig.Config{
		NotifyOnOrder: true,
		OwnerEmail:    "owner@elroble.co",
		StoreName:     "Licores El Roble",
	}

	if n := BuildOrderNotifier(cfg, logging.New("error")); n == nil {
		t.Fatalf("expected a notifier backed by the stub sender")
	}
}
