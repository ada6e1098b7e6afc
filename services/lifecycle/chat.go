package lifecycle

import (
	"context"
	"sync"
	"time"

	"fieldly/api"
	"fieldly/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatThread holds the customer-provider messages for one job. Sends are
// optimistic: the message is inserted locally before the server confirms,
// then reconciled by local id. A failed send is marked FailedButRetained and
// never removed; delivery is not guaranteed to be instantaneous, and a silent
// disappearance would be more confusing than a stale local echo.
type ChatThread struct {
	api    api.Client
	logger *zap.Logger
	jobID  string

	mu       sync.Mutex
	messages []models.ChatMessage
}

func NewChatThread(client api.Client, logger *zap.Logger, jobID string) *ChatThread {
	return &ChatThread{api: client, logger: logger, jobID: jobID}
}

// Send inserts the message optimistically, attempts the server send, and
// reconciles the entry by its local id. The returned message carries the
// final delivery state.
func (t *ChatThread) Send(ctx context.Context, body string) models.ChatMessage {
	msg := models.ChatMessage{
		LocalID:  uuid.New().String(),
		JobID:    t.jobID,
		Body:     body,
		SentAt:   time.Now(),
		Delivery: models.ChatPending,
	}

	t.mu.Lock()
	t.messages = append(t.messages, msg)
	t.mu.Unlock()

	serverID, err := t.api.SendChatMessage(ctx, t.jobID, body)
	if err != nil {
		t.logger.Warn("Chat send failed, retaining local message",
			zap.String("job", t.jobID), zap.String("local", msg.LocalID), zap.Error(err))
		return t.reconcile(msg.LocalID, "", models.ChatFailedButRetained)
	}
	return t.reconcile(msg.LocalID, serverID, models.ChatConfirmed)
}

// reconcile updates the entry with the given local id in place and returns
// the updated message.
func (t *ChatThread) reconcile(localID, serverID string, delivery models.ChatDelivery) models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.messages {
		if t.messages[i].LocalID == localID {
			t.messages[i].ServerID = serverID
			t.messages[i].Delivery = delivery
			return t.messages[i]
		}
	}
	// Entry vanished, which only a programming error could cause.
	return models.ChatMessage{LocalID: localID, ServerID: serverID, Delivery: delivery}
}

// Messages returns a copy of the thread in insertion order.
func (t *ChatThread) Messages() []models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}
