package jq

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// JobQueue is a thin wrapper around a NATS JetStream connection used for
// publishing domain events to durable streams.
type JobQueue struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *zap.Logger
}

func New(url string, logger *zap.Logger) (*JobQueue, error) {
	jq := &JobQueue{
		logger: logger.Named("jq"),
	}

	conn, err := nats.Connect(
		url,
		nats.Name(fmt.Sprintf("fulfillment-%s", uuid.NewString())),
		nats.ReconnectHandler(jq.reconnectHandler),
		nats.DisconnectErrHandler(jq.disconnectHandler),
	)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	jq.conn = conn
	jq.js = js

	return jq, nil
}

// Stream ensures a stream exists with the given topics.
func (jq *JobQueue) Stream(ctx context.Context, name, description string, topics []string, maxMsgs int64) error {
	_, err := jq.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: description,
		Subjects:    topics,
		MaxMsgs:     maxMsgs,
	})
	return err
}

// Produce publishes data on the topic. The id is used for jetstream
// message deduplication.
func (jq *JobQueue) Produce(ctx context.Context, topic string, data []byte, id string) (*jetstream.PubAck, error) {
	return jq.js.Publish(ctx, topic, data, jetstream.WithMsgID(id))
}

func (jq *JobQueue) Close() {
	if jq.conn != nil {
		jq.conn.Close()
	}
}

func (jq *JobQueue) reconnectHandler(nc *nats.Conn) {
	jq.logger.Info("got reconnected", zap.String("url", nc.ConnectedUrl()))
}

func (jq *JobQueue) disconnectHandler(_ *nats.Conn, err error) {
	jq.logger.Error("got disconnected", zap.Error(err))
}
