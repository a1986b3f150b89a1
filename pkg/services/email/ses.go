package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rs/zerolog"
)

const (
	DefaultAttachmentType = "text/html; charset=utf-8"
	base64LineLength      = 76
)

var (
	ErrNoSender     = errors.New("email has no sender")
	ErrNoRecipients = errors.New("email has no recipients")
)

// Sender is the part of the SES client used to deliver messages.
type Sender interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Raw renders the message as a multipart/mixed MIME document.
func (m Message) Raw() ([]byte, error) {
	if m.From == "" {
		return nil, ErrNoSender
	}
	if len(m.To) == 0 {
		return nil, ErrNoRecipients
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", m.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	body, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"7bit"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message body: %w", err)
	}
	if _, err := body.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}

	for _, a := range m.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = DefaultAttachmentType
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {contentType},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment %s: %w", a.Filename, err)
		}
		if _, err := part.Write(encodeBase64Lines(a.Content)); err != nil {
			return nil, fmt.Errorf("failed to write attachment %s: %w", a.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize message: %w", err)
	}
	return buf.Bytes(), nil
}

// Client delivers messages through Amazon SES.
type Client struct {
	ses Sender
}

func NewClient(ses Sender) *Client {
	return &Client{ses: ses}
}

// Send delivers msg and returns the SES message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	raw, err := msg.Raw()
	if err != nil {
		return "", err
	}

	out, err := c.ses.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From),
		Destinations: msg.To,
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	messageID := aws.ToString(out.MessageId)
	zerolog.Ctx(ctx).Debug().
		Str("message_id", messageID).
		Strs("to", msg.To).
		Msg("email sent")
	return messageID, nil
}

func encodeBase64Lines(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)

	var buf bytes.Buffer
	for len(encoded) > base64LineLength {
		buf.WriteString(encoded[:base64LineLength])
		buf.WriteString("\r\n")
		encoded = encoded[base64LineLength:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
