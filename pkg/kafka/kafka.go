package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

const (
	SearchTopic = "bookstore.search"
	ReviewTopic = "bookstore.review"
)

type Config struct {
	Addrs   []string      `envconfig:"KAFKA_ADDRS"`
	Timeout time.Duration `envconfig:"KAFKA_TIMEOUT" default:"5s"`
	// Buffer is how many events wait for the broker before new ones are dropped.
	Buffer int `envconfig:"KAFKA_BUFFER" default:"256"`
}

// Enabled reports whether any broker is configured; without one the
// bookstore runs with events turned off.
func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	return sarama.NewSyncProducer(cfg.Addrs, producerConfig(cfg))
}

// producerConfig bounds every broker round trip by cfg.Timeout.
func producerConfig(cfg Config) *sarama.Config {
	c := sarama.NewConfig()
	c.ClientID = "bookstore"

	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Return.Successes = true
	c.Producer.Timeout = cfg.Timeout
	c.Producer.Retry.Max = 1

	c.Net.DialTimeout = cfg.Timeout
	c.Net.ReadTimeout = cfg.Timeout
	c.Net.WriteTimeout = cfg.Timeout
	c.Metadata.Retry.Max = 1
	return c
}
