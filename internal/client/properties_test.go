package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestProperties() (Properties, *ConnectorConfig, *FeedConfig) {
	connector := &ConnectorConfig{}
	feed := &FeedConfig{}
	return Properties{Connector: connector, Feed: feed}, connector, feed
}

func TestPropertiesSet(t *testing.T) {
	tests := []struct {
		name      string
		pair      string
		assertion assert.ErrorAssertionFunc
		check     func(t *testing.T, connector *ConnectorConfig, feed *FeedConfig)
	}{
		{
			name:      "ClientID",
			pair:      "client.id=myclient",
			assertion: assert.NoError,
			check: func(t *testing.T, connector *ConnectorConfig, feed *FeedConfig) {
				assert.Equal(t, "myclient", connector.ClientID)
			},
		},
		{
			name:      "GroupID",
			pair:      "group.id=mygroup",
			assertion: assert.NoError,
			check: func(t *testing.T, connector *ConnectorConfig, feed *FeedConfig) {
				assert.Equal(t, "mygroup", feed.GroupID)
			},
		},
		{
			name:      "TopicScopedFetchWait",
			pair:      "topic.fetch.wait.max.ms=250",
			assertion: assert.NoError,
			check: func(t *testing.T, connector *ConnectorConfig, feed *FeedConfig) {
				assert.Equal(t, 250*time.Millisecond, feed.MaxWait)
			},
		},
		{
			name:      "SASLMechanismEnables",
			pair:      "sasl.mechanism=SCRAM-SHA-512",
			assertion: assert.NoError,
			check: func(t *testing.T, connector *ConnectorConfig, feed *FeedConfig) {
				assert.True(t, connector.SASL.Enabled)
				assert.Equal(t, SASLMechanismScramSHA512, connector.SASL.Mechanism)
			},
		},
		{
			name:      "TLSCAPathEnables",
			pair:      "tls.ca.path=/etc/ssl/ca.pem",
			assertion: assert.NoError,
			check: func(t *testing.T, connector *ConnectorConfig, feed *FeedConfig) {
				assert.True(t, connector.TLS.Enabled)
				assert.Equal(t, "/etc/ssl/ca.pem", connector.TLS.CACertPath)
			},
		},
		{
			name:      "UnknownProperty",
			pair:      "bogus.key=1",
			assertion: assert.Error,
		},
		{
			name:      "UnknownTopicPropertyDoesNotFallBackBlindly",
			pair:      "topic.bogus.key=1",
			assertion: assert.Error,
		},
		{
			name:      "MissingValue",
			pair:      "client.id",
			assertion: assert.Error,
		},
		{
			name:      "BadInteger",
			pair:      "queue.depth=many",
			assertion: assert.Error,
		},
		{
			name:      "BadBool",
			pair:      "tls.enabled=yep",
			assertion: assert.Error,
		},
		{
			name:      "BadSASLMechanism",
			pair:      "sasl.mechanism=kerberos",
			assertion: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			properties, connector, feed := newTestProperties()
			err := properties.Set(tt.pair)
			tt.assertion(t, err)
			if tt.check != nil {
				tt.check(t, connector, feed)
			}
		})
	}
}

func TestKnownProperties(t *testing.T) {
	names := KnownProperties()
	assert.Contains(t, names, "client.id")
	assert.Contains(t, names, "topic.fetch.min.bytes")
	assert.NotContains(t, names, "fetch.min.bytes")
}
