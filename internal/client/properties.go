package client

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// topicPrefix scopes a property to topic-level configuration. A
// "topic."-prefixed name is tried against the topic table first and
// falls back to the global table if the topic table does not know it.
const topicPrefix = "topic."

// Properties applies raw name=value overrides onto the connector and
// feed configuration. Unknown names are an error; the caller treats
// that as fatal at startup.
type Properties struct {
	Connector *ConnectorConfig
	Feed      *FeedConfig
}

// Set parses a single "name=value" pair and applies it.
func (p *Properties) Set(pair string) error {
	name, value, found := strings.Cut(pair, "=")
	if !found {
		return fmt.Errorf("expected property=value, not %q", pair)
	}

	if strings.HasPrefix(name, topicPrefix) {
		ok, err := p.setTopic(strings.TrimPrefix(name, topicPrefix), value)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		if ok {
			return nil
		}
	}

	if err := p.setGlobal(name, value); err != nil {
		return fmt.Errorf("property %s: %w", name, err)
	}
	return nil
}

// setTopic applies a topic-scoped property. The bool result reports
// whether the name is a topic property at all.
func (p *Properties) setTopic(name, value string) (bool, error) {
	switch name {
	case "fetch.min.bytes":
		n, err := parseInt(value)
		if err != nil {
			return true, err
		}
		p.Feed.MinBytes = n
	case "fetch.max.bytes":
		n, err := parseInt(value)
		if err != nil {
			return true, err
		}
		p.Feed.MaxBytes = n
	case "fetch.wait.max.ms":
		n, err := parseInt(value)
		if err != nil {
			return true, err
		}
		p.Feed.MaxWait = time.Duration(n) * time.Millisecond
	default:
		return false, nil
	}
	return true, nil
}

func (p *Properties) setGlobal(name, value string) error {
	switch name {
	case "client.id":
		p.Connector.ClientID = value
	case "group.id":
		p.Feed.GroupID = value
	case "queue.depth":
		n, err := parseInt(value)
		if err != nil {
			return err
		}
		p.Feed.QueueDepth = n
	case "tls.enabled":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		p.Connector.TLS.Enabled = b
	case "tls.ca.path":
		p.Connector.TLS.CACertPath = value
		p.Connector.TLS.Enabled = true
	case "tls.cert.path":
		p.Connector.TLS.CertPath = value
		p.Connector.TLS.Enabled = true
	case "tls.key.path":
		p.Connector.TLS.KeyPath = value
		p.Connector.TLS.Enabled = true
	case "tls.server.name":
		p.Connector.TLS.ServerName = value
	case "tls.skip.verify":
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		p.Connector.TLS.SkipVerify = b
	case "sasl.mechanism":
		mechanism, err := SASLNameToMechanism(value)
		if err != nil {
			return err
		}
		p.Connector.SASL.Mechanism = mechanism
		p.Connector.SASL.Enabled = true
	case "sasl.username":
		p.Connector.SASL.Username = value
	case "sasl.password":
		p.Connector.SASL.Password = value
	default:
		return fmt.Errorf("unknown configuration property")
	}
	return nil
}

// KnownProperties returns every accepted property name, topic-scoped
// names carrying their "topic." prefix, sorted. Used by "-X list".
func KnownProperties() []string {
	names := []string{
		"client.id",
		"group.id",
		"queue.depth",
		"tls.enabled",
		"tls.ca.path",
		"tls.cert.path",
		"tls.key.path",
		"tls.server.name",
		"tls.skip.verify",
		"sasl.mechanism",
		"sasl.username",
		"sasl.password",
		topicPrefix + "fetch.min.bytes",
		topicPrefix + "fetch.max.bytes",
		topicPrefix + "fetch.wait.max.ms",
	}
	sort.Strings(names)
	return names
}

func parseInt(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("expected integer value, got %q", value)
	}
	return n, nil
}

func parseBool(value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("expected boolean value, got %q", value)
	}
	return b, nil
}
