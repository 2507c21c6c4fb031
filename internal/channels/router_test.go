package channels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMessenger struct {
	texts  []string
	images []string
}

func (m *recordingMessenger) SendText(_ context.Context, recipient, _ string) error {
	m.texts = append(m.texts, recipient)
	return nil
}

func (m *recordingMessenger) SendImage(_ context.Context, recipient, _, _ string) error {
	m.images = append(m.images, recipient)
	return nil
}

func TestRouterRoutesByRecipientPrefix(t *testing.T) {
	wa := &recordingMessenger{}
	wc := &recordingMessenger{}
	r := NewRouter(wa, wc)

	ctx := context.Background()
	require.NoError(t, r.SendText(ctx, "573001112233", "hola"))
	require.NoError(t, r.SendText(ctx, "webchat:abc", "hola"))
	require.NoError(t, r.SendImage(ctx, "573001112233", "u", "c"))

	assert.Equal(t, []string{"573001112233"}, wa.texts)
	assert.Equal(t, []string{"webchat:abc"}, wc.texts)
	assert.Equal(t, []string{"573001112233"}, wa.images)
}

func TestRouterFallsBackWithoutWebchat(t *testing.T) {
	wa := &recordingMessenger{}
	r := NewRouter(wa, nil)

	require.NoError(t, r.SendText(context.Background(), "webchat:abc", "hola"))
	assert.Equal(t, []string{"webchat:abc"}, wa.texts)
}
