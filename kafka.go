package zns

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"github.com/segmentio/kafka-go"
)

const (
	OutcomeTopic = "zns_outcome"
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	return &KWriter{
		w: w,
	}, nil
}

func (kw *KWriter) Write(key string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return kw.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
	})
}

// OnOutcome implements OutcomeSink. Messages are keyed by domain so one
// name's history stays ordered within a partition.
func (kw *KWriter) OnOutcome(o *schema.Outcome) error {
	body, err := json.Marshal(outcomeMessage(o))
	if err != nil {
		return err
	}
	return kw.Write(o.Domain, body)
}

func outcomeMessage(o *schema.Outcome) schema.KafkaOutcome {
	msg := schema.KafkaOutcome{
		Account:   o.Account.Hex(),
		Domain:    o.Domain,
		Action:    string(o.Action),
		Success:   o.Success(),
		Timestamp: time.Now().Unix(),
	}
	if o.Submitted() {
		msg.TxHash = o.TxHash.Hex()
	}
	if o.ApproveHash != (common.Hash{}) {
		msg.ApproveHash = o.ApproveHash.Hex()
	}
	if o.Err != nil {
		msg.ErrKind = schema.KindOf(o.Err)
	}
	if o.Result != nil {
		msg.Expiry = o.Result.Expiry
		msg.Owner = o.Result.Owner.Hex()
	}
	return msg
}

func (kw *KWriter) Close() {
	kw.w.Close()
}
