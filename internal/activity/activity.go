// Package activity is the fire-and-forget system activity side channel.
// Recording never affects the success or failure of the operation that
// emitted it.
package activity

import "go.uber.org/zap"

// Recorder receives best-effort activity notifications.
type Recorder interface {
	Record(description, entityType, entityID string)
}

// ZapRecorder writes activity to the global logger.
type ZapRecorder struct{}

func (ZapRecorder) Record(description, entityType, entityID string) {
	zap.L().Info("activity: "+description,
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
	)
}

// Noop discards all activity.
type Noop struct{}

func (Noop) Record(description, entityType, entityID string) {}
