package event

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogHook は通知をdebugログに出す。
func LogHook(log logrus.FieldLogger) Hook {
	return HookFunc(func(_ context.Context, ev Event) error {
		log.WithFields(logrus.Fields{
			"topic":       ev.Topic,
			"shopper_id":  ev.ShopperID,
			"items":       len(ev.Items),
			"total_items": ev.TotalItems,
		}).Debug("event published")
		return nil
	})
}
