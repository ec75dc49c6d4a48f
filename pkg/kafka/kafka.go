package kafka

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/foodpost/internal/config"
)

const (
	maxRetries = 10
	retryDelay = 3 * time.Second
)

func waitForKafka(brokers []string) error {
	for i := 0; i < maxRetries; i++ {
		cfg := sarama.NewConfig()
		cfg.Net.DialTimeout = 1 * time.Second
		client, err := sarama.NewClient(brokers, cfg)
		if err == nil {
			client.Close()
			return nil
		}
		slog.Info("Waiting for Kafka to be ready...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	return fmt.Errorf("kafka not available after %d attempts", maxRetries)
}

// NewProducer returns a SyncProducer that hashes keys to partitions, keeping one profile's events ordered.
func NewProducer(kc config.KafkaConfig) (sarama.SyncProducer, error) {
	brokers := []string{kc.Broker}
	if err := waitForKafka(brokers); err != nil {
		return nil, err
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Retry.Max = kc.RetryMax
	cfg.Producer.Retry.Backoff = kc.RetryBackoff

	return sarama.NewSyncProducer(brokers, cfg)
}

func NewConsumer(kc config.KafkaConfig) (sarama.ConsumerGroup, error) {
	brokers := []string{kc.Broker}
	if err := waitForKafka(brokers); err != nil {
		return nil, err
	}

	cfg := sarama.NewConfig()
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true

	return sarama.NewConsumerGroup(brokers, kc.Group, cfg)
}
