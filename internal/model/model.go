package model

import (
	"github.com/gardenlab/garden-telemetry/internal/model/entities"
	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

// Aliases exposing common types to the services.

type (
	Sensor              = entities.Sensor
	Flowerpot           = entities.Flowerpot
	FlowerpotSensorLink = entities.FlowerpotSensorLink
	Garden              = entities.Garden
	Category            = entities.Category
	User                = entities.User

	ReadingMessage = messages.ReadingMessage
	Reading        = messages.Reading
	ActuationEvent = messages.ActuationEvent
)

const (
	CommandStartWaterPump = messages.CommandStartWaterPump
	CommandNone           = messages.CommandNone
)
