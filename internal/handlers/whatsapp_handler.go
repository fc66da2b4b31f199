package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/services"
)

var orderRefPattern = regexp.MustCompile(`(#?)\b([A-HJ-NP-Z2-9]{6})\b`)

// maxOrderRefs caps how many candidates one message can look up.
const maxOrderRefs = 3

// WhatsAppHandler answers customers who message the store number through the
// gateway and lets the admin send one-off messages.
type WhatsAppHandler struct {
	sender    services.MessageSender
	orders    services.OrderService
	storeName string
}

func NewWhatsAppHandler(sender services.MessageSender, orders services.OrderService, storeName string) *WhatsAppHandler {
	return &WhatsAppHandler{sender: sender, orders: orders, storeName: storeName}
}

type WebhookRequest struct {
	SenderID  string `json:"sender_id"`
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Pushname  string `json:"pushname"`
	Message   struct {
		Text          string `json:"text"`
		ID            string `json:"id"`
		RepliedID     string `json:"replied_id"`
		QuotedMessage string `json:"quoted_message"`
	} `json:"message"`
}

type SendMessageRequest struct {
	Phone   string `json:"phone" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// HandleWebhook replies to an inbound message that mentions an order id with
// that order's current status.
func (h *WhatsAppHandler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if h.sender == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	// from is formatted as 918301032794@s.whatsapp.net
	phone := req.From
	if phone == "" {
		phone = req.SenderID
	}
	phone, _, _ = strings.Cut(phone, "@")

	reply := h.reply(c, req.Message.Text)
	if err := h.sender.SendTextMessage(c.Request.Context(), phone, reply); err != nil {
		logrus.WithError(err).WithField("phone", phone).Warn("failed to answer whatsapp message")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *WhatsAppHandler) reply(c *gin.Context, text string) string {
	refs, tagged := orderRefs(text)
	for _, ref := range refs {
		tracked, err := h.orders.Track(c.Request.Context(), ref)
		if err != nil {
			continue
		}
		msg := fmt.Sprintf("Order #%s: %s\n%s", tracked.ID, tracked.Display.Title, tracked.Display.Description)
		if tracked.TrackingLink != "" {
			msg += "\n\nTrack Status: " + tracked.TrackingLink
		}
		return msg
	}

	if tagged {
		return fmt.Sprintf("We couldn't find order #%s. Please check the ID and try again.", refs[len(refs)-1])
	}
	return fmt.Sprintf("Thanks for messaging %s! Send your order ID (for example #K7P2QX) to get its latest status.", h.storeName)
}

// orderRefs pulls order id candidates out of a chat message in any case.
// Ids written as #XXXXXX win over bare words, and tagged reports whether any
// were found.
func orderRefs(text string) (refs []string, tagged bool) {
	var bare []string
	for _, m := range orderRefPattern.FindAllStringSubmatch(strings.ToUpper(text), -1) {
		if m[1] == "#" {
			refs = append(refs, m[2])
		} else {
			bare = append(bare, m[2])
		}
	}
	if len(refs) > 0 {
		tagged = true
	} else {
		refs = bare
	}
	if len(refs) > maxOrderRefs {
		refs = refs[:maxOrderRefs]
	}
	return refs, tagged
}

// SendMessage pushes an arbitrary message to a customer from the dashboard.
func (h *WhatsAppHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if h.sender == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "WhatsApp gateway is not configured"})
		return
	}

	if err := h.sender.SendTextMessage(c.Request.Context(), req.Phone, req.Message); err != nil {
		logrus.WithError(err).Warn("failed to send whatsapp message")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
