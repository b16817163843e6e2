package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

type fakeProcessor struct {
	mu          sync.Mutex
	startResp   *Response
	messageResp *Response
	err         error
	lastStart   StartRequest
	lastMessage MessageRequest
}

func (f *fakeProcessor) StartConversation(_ context.Context, req StartRequest) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastStart = req
	return f.startResp, f.err
}

func (f *fakeProcessor) ProcessMessage(_ context.Context, req MessageRequest) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMessage = req
	return f.messageResp, f.err
}

func (f *fakeProcessor) GetHistory(context.Context, string) ([]Message, error) {
	return []Message{{Role: ChatRoleAssistant, Content: "hola"}}, nil
}

func newTestOrchestrator(t *testing.T, processor Service, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	base := []OrchestratorOption{
		WithWorkerCount(1),
		WithReceiveBatchSize(1),
		WithReceiveWaitSeconds(0),
	}
	o := NewOrchestrator(processor, NewMemoryQueue(8), logging.Default(), append(base, opts...)...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = o.Shutdown(ctx)
	})
	return o
}

func TestOrchestratorStartConversation(t *testing.T) {
	processor := &fakeProcessor{startResp: &Response{ConversationID: "conv-1", Message: "hola"}}
	o := newTestOrchestrator(t, processor)

	resp, err := o.StartConversation(context.Background(), StartRequest{ConversationID: "conv-1", Channel: ChannelWeb})

	require.NoError(t, err)
	assert.Equal(t, "conv-1", resp.ConversationID)
	assert.Equal(t, "hola", resp.Message)
	assert.Equal(t, ChannelWeb, processor.lastStart.Channel)
}

func TestOrchestratorProcessMessage(t *testing.T) {
	processor := &fakeProcessor{messageResp: &Response{ConversationID: "conv-1", Message: "respuesta"}}
	o := newTestOrchestrator(t, processor)

	resp, err := o.ProcessMessage(context.Background(), MessageRequest{
		ConversationID: "conv-1",
		Message:        "quiero una cita",
	})

	require.NoError(t, err)
	assert.Equal(t, "respuesta", resp.Message)
	assert.Equal(t, "quiero una cita", processor.lastMessage.Message)
}

func TestOrchestratorPropagatesProcessorError(t *testing.T) {
	processor := &fakeProcessor{err: errFakeFailure}
	o := newTestOrchestrator(t, processor)

	_, err := o.ProcessMessage(context.Background(), MessageRequest{ConversationID: "conv-1", Message: "x"})

	assert.ErrorIs(t, err, errFakeFailure)
}

func TestOrchestratorGetHistoryBypassesQueue(t *testing.T) {
	o := newTestOrchestrator(t, &fakeProcessor{})

	history, err := o.GetHistory(context.Background(), "conv-1")

	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hola", history[0].Content)
}

func TestOrchestratorShutdownRejectsNewWork(t *testing.T) {
	processor := &fakeProcessor{startResp: &Response{ConversationID: "conv-1"}}
	o := NewOrchestrator(processor, NewMemoryQueue(8), logging.Default(),
		WithWorkerCount(1), WithReceiveBatchSize(1), WithReceiveWaitSeconds(0))

	require.NoError(t, o.Shutdown(context.Background()))

	_, err := o.StartConversation(context.Background(), StartRequest{})
	assert.ErrorIs(t, err, ErrOrchestratorClosed)
}

func TestOrchestratorContextCancellation(t *testing.T) {
	block := make(chan struct{})
	processor := &blockingProcessor{block: block}
	o := newTestOrchestrator(t, processor)
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := o.ProcessMessage(ctx, MessageRequest{ConversationID: "conv-1", Message: "x"})
	assert.Error(t, err)
}

type blockingProcessor struct {
	block chan struct{}
}

func (b *blockingProcessor) StartConversation(context.Context, StartRequest) (*Response, error) {
	<-b.block
	return &Response{}, nil
}

func (b *blockingProcessor) ProcessMessage(context.Context, MessageRequest) (*Response, error) {
	<-b.block
	return &Response{}, nil
}

func (b *blockingProcessor) GetHistory(context.Context, string) ([]Message, error) {
	return nil, nil
}
