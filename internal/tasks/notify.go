package tasks

import (
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ssx/internal/models"
)

// Notifier receives renderer notifications from [SnapshotSync].
type Notifier interface {
	Notify(models.Notification)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(models.Notification) {}

// ChannelNotifier forwards notifications to a channel without blocking.
//
// Notifications are dropped when the channel is full.
type ChannelNotifier struct {
	ch chan<- models.Notification
}

func NewChannelNotifier(ch chan<- models.Notification) *ChannelNotifier {
	return &ChannelNotifier{ch: ch}
}

func (c *ChannelNotifier) Notify(n models.Notification) {
	if c == nil || c.ch == nil {
		return
	}
	select {
	case c.ch <- n:
	default:
	}
}

// LogNotifier writes notifications to a logger, errors at error level.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n models.Notification) {
	switch n.Type {
	case models.NotifyError:
		l.logger.Error(n.String(), "kind", n.Kind)
	case models.NotifyUpdated:
		l.logger.Debug("snapshots updated", "kind", n.Kind)
	default:
		l.logger.Info(n.String(), "kind", n.Kind)
	}
}

func notifyError(kind models.Kind, title string, err error) models.Notification {
	return models.Notification{Type: models.NotifyError, Kind: kind, Title: title, Message: err.Error()}
}

func notifySuccess(kind models.Kind, title, message string) models.Notification {
	return models.Notification{Type: models.NotifySuccess, Kind: kind, Title: title, Message: message}
}

func notifyUpdated(kind models.Kind) models.Notification {
	return models.Notification{Type: models.NotifyUpdated, Kind: kind}
}
