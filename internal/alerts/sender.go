package alerts

import "log"

// Sender is the capability of handing a critical alert to the channel. Two
// implementations exist: ConsoleSender for broker-less deployments and
// BrokerSender for the real RabbitMQ channel. The profile is chosen by
// configuration at startup, never by conditional compilation.
type Sender interface {
	SendCriticalAlert(alert SystemAlert) error
}

// ConsoleSender logs alerts locally instead of publishing them. Alerts sent
// through it are lost by design; it exists so the service runs in
// environments without a broker.
type ConsoleSender struct{}

func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

func (s *ConsoleSender) SendCriticalAlert(alert SystemAlert) error {
	log.Printf("[alerts] console sender: source=%s severity=%s message=%q", alert.SystemSource, alert.Severity, alert.Message)
	return nil
}
