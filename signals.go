package shroud

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for masking events.
var (
	SignalProcessorCreated = capitan.NewSignal("shroud.processor.created", "Processor instantiated")
	SignalMaskStart        = capitan.NewSignal("shroud.mask.start", "Record masking beginning")
	SignalMaskComplete     = capitan.NewSignal("shroud.mask.complete", "Record masking finished")
	SignalCountryDetected  = capitan.NewSignal("shroud.country.detected", "Identifier country auto-detected")
)

// Keys for typed event data.
var (
	KeyContentType = capitan.NewStringKey("content_type")
	KeyTypeName    = capitan.NewStringKey("type_name")
	KeyDuration    = capitan.NewDurationKey("duration")
	KeyMaskedCount = capitan.NewIntKey("masked_count")
	KeyFailedCount = capitan.NewIntKey("failed_count")
	KeyCountry     = capitan.NewStringKey("country")
)

// emitProcessorCreated emits an event when a processor is created.
func emitProcessorCreated(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalProcessorCreated,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitMaskStart emits an event when record masking begins.
func emitMaskStart(ctx context.Context, contentType, typeName string) {
	capitan.Emit(ctx, SignalMaskStart,
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
	)
}

// emitMaskComplete emits an event when record masking finishes.
// Field failures are reported as a count; the Report carries the detail.
func emitMaskComplete(ctx context.Context, contentType, typeName string, duration time.Duration, masked, failed int) {
	fields := []capitan.Field{
		KeyContentType.Field(contentType),
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyMaskedCount.Field(masked),
		KeyFailedCount.Field(failed),
	}
	if failed > 0 {
		capitan.Error(ctx, SignalMaskComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalMaskComplete, fields...)
}

// emitCountryDetected emits an event when auto-detection commits to a
// country. The identifier itself is never logged.
func emitCountryDetected(ctx context.Context, code string) {
	capitan.Emit(ctx, SignalCountryDetected,
		KeyCountry.Field(code),
	)
}
