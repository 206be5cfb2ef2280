// Package webhook handles LINE webhook events: it admits text messages into
// the request sequencer and replies with the orchestrated response.
package webhook

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/pakawat-dev/support-linebot-go/internal/logger"
	"github.com/pakawat-dev/support-linebot-go/internal/metrics"
	"github.com/pakawat-dev/support-linebot-go/internal/ratelimit"
	"github.com/pakawat-dev/support-linebot-go/internal/sequencer"
	"github.com/pakawat-dev/support-linebot-go/internal/session"
)

const maxTextMessageRunes = 5000

// Handler handles LINE webhook events.
type Handler struct {
	channelSecret string
	client        *messaging_api.MessagingApiAPI
	sequencer     *sequencer.Sequencer
	sessions      *session.Registry
	userLimiter   *ratelimit.PerKeyLimiter
	greeting      string
	busyResponse  string
	log           *logger.Logger
	metrics       *metrics.Metrics
	wg            sync.WaitGroup
}

// HandlerConfig holds the dependencies for a webhook handler.
type HandlerConfig struct {
	ChannelSecret string
	ChannelToken  string
	Sequencer     *sequencer.Sequencer
	Sessions      *session.Registry
	UserLimiter   *ratelimit.PerKeyLimiter
	Greeting      string
	BusyResponse  string
	Logger        *logger.Logger
	Metrics       *metrics.Metrics
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	client, err := messaging_api.NewMessagingApiAPI(cfg.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	return &Handler{
		channelSecret: cfg.ChannelSecret,
		client:        client,
		sequencer:     cfg.Sequencer,
		sessions:      cfg.Sessions,
		userLimiter:   cfg.UserLimiter,
		greeting:      cfg.Greeting,
		busyResponse:  cfg.BusyResponse,
		log:           cfg.Logger.WithModule("webhook"),
		metrics:       cfg.Metrics,
	}, nil
}

// Handle is the gin handler for the webhook endpoint. LINE requires a fast
// 200; events are processed asynchronously after the response.
func (h *Handler) Handle(c *gin.Context) {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			h.log.Warn("invalid webhook signature")
			c.Status(http.StatusBadRequest)
		} else {
			h.log.WithError(err).Error("parse webhook request failed")
			c.Status(http.StatusInternalServerError)
		}
		return
	}
	c.Status(http.StatusOK)

	events := make([]webhook.EventInterface, len(cb.Events))
	copy(events, cb.Events)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				h.log.WithField("panic", r).Error("panic in event processing")
			}
		}()
		for _, event := range events {
			h.processEvent(event)
		}
	}()
}

// Wait blocks until in-flight event processing finishes. Used at shutdown.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) processEvent(event webhook.EventInterface) {
	start := time.Now()

	switch e := event.(type) {
	case webhook.MessageEvent:
		h.handleMessage(e, start)
	case webhook.FollowEvent:
		h.handleFollow(e, start)
	default:
		h.log.WithField("event_type", fmt.Sprintf("%T", e)).Debug("unsupported event type")
	}
}

func (h *Handler) handleMessage(event webhook.MessageEvent, start time.Time) {
	text, ok := messageText(event)
	if !ok {
		h.metrics.RecordWebhook("message", "skipped", time.Since(start).Seconds())
		return
	}
	userID := sourceUserID(event.Source)

	log := h.log.WithRequestID(requestID(event.WebhookEventId)).WithUserID(userID)

	if !h.userLimiter.Allow(userID) {
		log.Warn("user rate limit exceeded; dropping message")
		h.metrics.RecordWebhook("message", "rate_limited", time.Since(start).Seconds())
		h.reply(log, event.ReplyToken, h.busyResponse)
		return
	}

	h.sessions.Touch(userID, session.Patch{LastMessageText: text})

	result := <-h.sequencer.Enqueue(userID, text)
	if result.Err != nil {
		log.WithError(result.Err).Error("message handling failed")
		h.metrics.RecordWebhook("message", "error", time.Since(start).Seconds())
		h.reply(log, event.ReplyToken, h.busyResponse)
		return
	}

	h.metrics.RecordWebhook("message", "success", time.Since(start).Seconds())
	h.reply(log, event.ReplyToken, result.Text)
}

func (h *Handler) handleFollow(event webhook.FollowEvent, start time.Time) {
	userID := sourceUserID(event.Source)
	log := h.log.WithRequestID(requestID(event.WebhookEventId)).WithUserID(userID)

	h.sessions.Touch(userID, session.Patch{})
	h.reply(log, event.ReplyToken, h.greeting)
	h.metrics.RecordWebhook("follow", "success", time.Since(start).Seconds())
}

func (h *Handler) reply(log *logger.Logger, replyToken, text string) {
	if replyToken == "" || text == "" {
		return
	}
	if _, err := h.client.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			&messaging_api.TextMessage{Text: truncateRunes(text, maxTextMessageRunes)},
		},
	}); err != nil {
		log.WithError(err).Error("send reply failed")
	}
}

// messageText extracts the text of a message event; non-text messages are
// not handled.
func messageText(event webhook.MessageEvent) (string, bool) {
	msg, ok := event.Message.(webhook.TextMessageContent)
	if !ok || msg.Text == "" {
		return "", false
	}
	return msg.Text, true
}

func sourceUserID(source webhook.SourceInterface) string {
	if s, ok := source.(webhook.UserSource); ok {
		return s.UserId
	}
	return ""
}

// requestID prefers LINE's webhook event ID; redeliveries then share one ID
// in the logs.
func requestID(eventID string) string {
	if eventID != "" {
		return eventID
	}
	return uuid.NewString()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
