package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []Message
	err   error
	block chan struct{}
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recordingSender) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

func TestDispatcher_DeliversQueuedMessages(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, 4, zerolog.Nop())

	assert.True(t, d.Enqueue(Message{Subject: "one"}))
	assert.True(t, d.Enqueue(Message{Subject: "two"}))
	require.NoError(t, d.Close(context.Background()))

	sent := sender.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "one", sent[0].Subject)
	assert.Equal(t, "two", sent[1].Subject)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	sender := &recordingSender{block: make(chan struct{})}
	d := NewDispatcher(sender, 1, zerolog.Nop())

	// the worker takes the first message and blocks on it, the second fills the queue
	assert.True(t, d.Enqueue(Message{Subject: "first"}))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, d.Enqueue(Message{Subject: "second"}))
	assert.False(t, d.Enqueue(Message{Subject: "dropped"}))

	close(sender.block)
	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, sender.messages(), 2)
}

func TestDispatcher_FailuresDoNotStopWorker(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, 4, zerolog.Nop())

	d.Enqueue(Message{Subject: "a"})
	d.Enqueue(Message{Subject: "b"})
	require.NoError(t, d.Close(context.Background()))
	assert.Len(t, sender.messages(), 2)
}

func TestDispatcher_EnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(&recordingSender{}, 1, zerolog.Nop())
	require.NoError(t, d.Close(context.Background()))

	assert.False(t, d.Enqueue(Message{Subject: "late"}))
	assert.ErrorIs(t, d.Close(context.Background()), ErrClosed)
}

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	return &ses.SendEmailOutput{}, args.Error(0)
}

func TestSES_Send(t *testing.T) {
	m := &mockSES{}
	m.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "noreply@artline.kz" &&
			len(in.Destination.ToAddresses) == 1 &&
			aws.ToString(in.Message.Subject.Data) == "New request"
	})).Return(nil).Once()

	s := &SES{client: m, from: "noreply@artline.kz"}
	require.NoError(t, s.Send(context.Background(), Message{To: []string{"sales@artline.kz"}, Subject: "New request", Text: "hi"}))
	m.AssertExpectations(t)
}

func TestSES_SendWithoutRecipientsIsNoop(t *testing.T) {
	m := &mockSES{}
	s := &SES{client: m, from: "noreply@artline.kz"}

	require.NoError(t, s.Send(context.Background(), Message{Subject: "x"}))
	m.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestSES_SendError(t *testing.T) {
	m := &mockSES{}
	m.On("SendEmail", mock.Anything, mock.Anything).Return(errors.New("throttled"))

	s := &SES{client: m, from: "noreply@artline.kz"}
	err := s.Send(context.Background(), Message{To: []string{"a@b.kz"}})
	assert.ErrorContains(t, err, "throttled")
}
