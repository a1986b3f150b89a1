package email

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendRawEmailOutput), args.Error(1)
}

func testMessage() Message {
	return Message{
		From:    "from@example.com",
		To:      []string{"recipient1@example.com", "recipient2@example.com"},
		Subject: "TEST Credit card slips 2023-01-02",
		Attachments: []Attachment{{
			Filename: "2023-01-02_credit_card_slips.htm",
			Content:  []byte("<html><p>No credit card orders on this date</p></html>"),
		}},
	}
}

func TestMessage_Raw(t *testing.T) {
	raw, err := testMessage().Raw()
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "from@example.com", msg.Header.Get("From"))
	assert.Equal(t, "recipient1@example.com, recipient2@example.com", msg.Header.Get("To"))
	assert.Equal(t, "TEST Credit card slips 2023-01-02", msg.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	reader := multipart.NewReader(msg.Body, params["boundary"])

	body, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", body.Header.Get("Content-Type"))

	attachment, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "2023-01-02_credit_card_slips.htm", attachment.FileName())
	assert.Equal(t, DefaultAttachmentType, attachment.Header.Get("Content-Type"))

	// multipart.Reader decodes quoted-printable only, so base64 is read raw.
	encoded, err := io.ReadAll(attachment)
	require.NoError(t, err)
	assert.Equal(t, string(encodeBase64Lines(testMessage().Attachments[0].Content)), string(encoded))

	_, err = reader.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestMessage_RawValidation(t *testing.T) {
	msg := testMessage()
	msg.From = ""
	_, err := msg.Raw()
	assert.ErrorIs(t, err, ErrNoSender)

	msg = testMessage()
	msg.To = nil
	_, err = msg.Raw()
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestEncodeBase64Lines(t *testing.T) {
	out := encodeBase64Lines(bytes.Repeat([]byte("a"), 200))
	for _, line := range bytes.Split(bytes.TrimSuffix(out, []byte("\r\n")), []byte("\r\n")) {
		assert.LessOrEqual(t, len(line), base64LineLength)
	}
}

func TestClient_Send(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendRawEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendRawEmailInput) bool {
		return aws.ToString(in.Source) == "from@example.com" &&
			len(in.Destinations) == 2 &&
			in.RawMessage != nil &&
			bytes.Contains(in.RawMessage.Data, []byte("2023-01-02_credit_card_slips.htm"))
	})).Return(&ses.SendRawEmailOutput{MessageId: aws.String("message-id-1")}, nil)

	id, err := NewClient(sender).Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Equal(t, "message-id-1", id)
	sender.AssertExpectations(t)
}

func TestClient_SendError(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendRawEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewClient(sender).Send(context.Background(), testMessage())
	assert.ErrorContains(t, err, "throttled")
}

func TestClient_SendInvalidMessage(t *testing.T) {
	sender := new(mockSender)
	msg := testMessage()
	msg.To = nil

	_, err := NewClient(sender).Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrNoRecipients)
	sender.AssertNotCalled(t, "SendRawEmail", mock.Anything, mock.Anything)
}
