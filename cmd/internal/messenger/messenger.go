package messenger

import "go.uber.org/zap"

// Messenger receives human readable progress and status messages at defined
// points of the deployment.
type Messenger interface {
	Info(message string)
	Warning(message string)
}

// ZapMessenger forwards progress messages to the global logger, keeping them
// on the same stderr stream as the rest of the application output.
type ZapMessenger struct {
}

func (m ZapMessenger) Info(message string) {
	zap.L().Info(message)
}

func (m ZapMessenger) Warning(message string) {
	zap.L().Warn(message)
}
