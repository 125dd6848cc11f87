package sink

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/recommend-games/board-game-merger/pkg/config"
)

const (
	batchTimeoutMillis = 100 // writer batch timeout in milliseconds
	publishBatchSize   = 500 // messages per WriteMessages call
	writeTimeoutSecs   = 30  // timeout per batch write in seconds

	kafkaScanBufSize    = 64 * 1024
	kafkaScanMaxLineLen = 16 * 1024 * 1024
)

var jsonFast = jsoniter.ConfigFastest

// KafkaPublisher re-publishes the lines of a merged output file as keyed
// messages on one topic.
type KafkaPublisher struct {
	writer   *kafka.Writer
	topic    string
	keyField string
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: batchTimeoutMillis * time.Millisecond,
		RequiredAcks: int(kafka.RequireAll),
	})
	return &KafkaPublisher{
		writer:   w,
		topic:    cfg.Topic,
		keyField: cfg.KeyField,
	}
}

// PublishFile streams the file and publishes every record; the message key
// is taken from the configured key field. Lines the merger wrote are
// already valid JSON, so a decode failure here is an error, not a skip.
func (p *KafkaPublisher) PublishFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, kafkaScanBufSize), kafkaScanMaxLineLen)

	batch := make([]kafka.Message, 0, publishBatchSize)
	published := 0

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec map[string]any
		if err := jsonFast.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("decoding record: %w", err)
		}

		batch = append(batch, kafka.Message{
			Topic: p.topic,
			Key:   messageKey(rec, p.keyField),
			Value: append([]byte(nil), line...),
			Time:  time.Now(),
		})

		if len(batch) >= publishBatchSize {
			if err := p.flush(ctx, batch); err != nil {
				return err
			}
			published += len(batch)
			batch = batch[:0]
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if len(batch) > 0 {
		if err := p.flush(ctx, batch); err != nil {
			return err
		}
		published += len(batch)
	}

	log.Printf("[Sink] Published %d record(s) to topic %s", published, p.topic)
	return nil
}

func (p *KafkaPublisher) flush(ctx context.Context, batch []kafka.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeoutSecs*time.Second)
	defer cancel()
	return p.writer.WriteMessages(ctx, batch...)
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

// messageKey extracts the partition key from a record.
func messageKey(rec map[string]any, field string) []byte {
	if field == "" {
		return nil
	}
	raw, ok := rec[field]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case string:
		return []byte(v)
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case float64:
		return strconv.AppendFloat(nil, v, 'f', -1, 64)
	default:
		return fmt.Append(nil, v)
	}
}
