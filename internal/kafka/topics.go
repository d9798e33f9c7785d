package kafka

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"eventhub/internal/logger"
)

// EnsureTopicsExist creates the ticket lifecycle topics if they don't
// already exist. Single partition per topic keeps one event's messages
// ordered end to end.
func EnsureTopicsExist(brokers []string, topics []string, log *logger.Logger) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("resolve controller: %w", err)
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err := controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		switch {
		case err == nil:
			if log != nil {
				log.LogKafka("CREATE", topic, "topic created")
			}
		case strings.Contains(err.Error(), "already exists"):
			// fine, someone else created it
		default:
			if log != nil {
				log.LogKafka("CREATE", topic, fmt.Sprintf("create failed: %v", err))
			}
		}
	}

	// Give the brokers a moment to settle newly created topics.
	time.Sleep(time.Second)
	return nil
}
