package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultMeetingEventsTopic    = "glec.meeting-events"
	DefaultMeetingEventsDLQTopic = "glec.meeting-events.dlq"
	DefaultActivityConsumerGroup = "glec-activities"

	// Events are a few hundred bytes of JSON, one per booking or proposal.
	DefaultProducerMaxAttempts  = 5
	DefaultProducerBatchTimeout = 5 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "lz4"
	DefaultProducerAsync        = false

	// A new activity group replays the whole topic so the timeline has no gap.
	DefaultConsumerStartOffset       = -2
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 1024 * 1024
	DefaultConsumerMaxWait           = 250 * time.Millisecond
	DefaultConsumerCommitInterval    = 1 * time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 30 * time.Second
	DefaultConsumerMaxRetries        = 5

	DefaultEnableMiddleware = true
)
