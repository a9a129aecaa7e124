package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

func TestConfig_Enabled(t *testing.T) {
	require.False(t, Config{}.Enabled())
	require.True(t, Config{Addrs: []string{"localhost:9092"}}.Enabled())
}

func TestProducerConfig(t *testing.T) {
	c := producerConfig(Config{Timeout: 2 * time.Second})
	require.NoError(t, c.Validate())

	require.Equal(t, sarama.WaitForAll, c.Producer.RequiredAcks)
	require.True(t, c.Producer.Return.Successes)
	require.Equal(t, 2*time.Second, c.Producer.Timeout)
	require.Equal(t, 2*time.Second, c.Net.DialTimeout)
	require.Equal(t, 2*time.Second, c.Net.ReadTimeout)
	require.Equal(t, 2*time.Second, c.Net.WriteTimeout)
	require.Equal(t, 1, c.Producer.Retry.Max)
}
