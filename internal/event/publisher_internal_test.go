package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/pkg/logger"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_WritesEnvelope(t *testing.T) {
	w := &recordingWriter{}
	pub := newKafkaPublisher(w, "test.", logger.NewNop())

	e, err := New(TopicCategoryCreated, "cat-1", map[string]string{"slug": "moda"})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(context.Background(), TopicCategoryCreated, e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "test.catalog.category.created", msg.Topic)
	assert.Equal(t, []byte("cat-1"), msg.Key)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, TopicCategoryCreated, decoded.Type)
	assert.JSONEq(t, `{"slug":"moda"}`, string(decoded.Payload))
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	pub := newKafkaPublisher(w, "", logger.NewNop())

	assert.NotPanics(t, func() {
		Emit(context.Background(), pub, logger.NewNop(), TopicProductDeleted, "p-1", nil)
	})
	assert.Empty(t, w.msgs)
}

// stalledWriter simula um broker fora do ar: só retorna quando o contexto expira.
type stalledWriter struct {
	err error
}

func (w *stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	w.err = ctx.Err()
	return w.err
}

func (w *stalledWriter) Close() error { return nil }

func TestEmit_BoundedByPublishTimeout(t *testing.T) {
	previous := publishTimeout
	publishTimeout = 50 * time.Millisecond
	t.Cleanup(func() { publishTimeout = previous })

	w := &stalledWriter{}
	pub := newKafkaPublisher(w, "", logger.NewNop())

	start := time.Now()
	Emit(context.Background(), pub, logger.NewNop(), TopicCategoryUpdated, "cat-1", nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, w.err, context.DeadlineExceeded)
}

func TestEmit_PublishesAfterRequestIsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &recordingWriter{}
	pub := newKafkaPublisher(w, "", logger.NewNop())

	Emit(ctx, pub, logger.NewNop(), TopicProductCreated, "p-1", nil)

	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicProductCreated, w.msgs[0].Topic)
}
