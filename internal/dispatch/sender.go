package dispatch

import (
	"context"
	"strings"

	"github.com/elit-parking/campaign-cli/pkg/twilio"
)

// Sender delivers one templated message and returns its delivery ID.
// Failures that carry a provider code should implement
// resilience.CodedError so the engine can classify them.
type Sender interface {
	Send(ctx context.Context, from, to, templateSID string, vars map[string]string) (string, error)
}

const whatsappPrefix = "whatsapp:"

// TwilioSender sends WhatsApp content templates through the Twilio API.
type TwilioSender struct {
	client twilio.Client
}

// NewTwilioSender wraps a Twilio client as a Sender.
func NewTwilioSender(client twilio.Client) *TwilioSender {
	return &TwilioSender{client: client}
}

// Send implements Sender. Addresses get the whatsapp: channel prefix when
// they lack it.
func (s *TwilioSender) Send(ctx context.Context, from, to, templateSID string, vars map[string]string) (string, error) {
	msg, err := s.client.SendTemplate(ctx, twilio.TemplateMessage{
		From:       channelAddress(from),
		To:         channelAddress(to),
		ContentSID: templateSID,
		Variables:  vars,
	})
	if err != nil {
		return "", err
	}
	return msg.SID, nil
}

func channelAddress(addr string) string {
	if strings.HasPrefix(addr, whatsappPrefix) {
		return addr
	}
	return whatsappPrefix + addr
}
