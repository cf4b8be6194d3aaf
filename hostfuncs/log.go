package hostfuncs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scarter4work/bayesianastro/wireformat"
)

// FuncLogMessage is the exported name of the guest logging host function.
const FuncLogMessage = "log_message"

type logAck struct {
	OK bool `json:"ok"`
}

// LogHandler returns the log_message handler. Guest log lines surface
// through the host logger at the guest's requested level; unknown levels
// fall back to info.
func LogHandler(log zerolog.Logger) ByteHandler {
	return NewJSONHandler(func(ctx context.Context, report wireformat.LogReport) logAck {
		level, err := zerolog.ParseLevel(report.Level)
		if err != nil || level == zerolog.NoLevel {
			level = zerolog.InfoLevel
		}
		log.WithLevel(level).Str("source", "module").Msg(report.Message)
		return logAck{OK: true}
	})
}
