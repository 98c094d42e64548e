package logging

import (
	"log/slog"
	"time"
)

// Field names shared by the slideshow components.
const (
	FieldRunID = "run_id"
	FieldPath  = "path"
	FieldIndex = "index"
	FieldPhase = "phase"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Since logs how long ago start was, in milliseconds.
func Since(start time.Time) slog.Attr {
	return slog.Int64("elapsed_ms", time.Since(start).Milliseconds())
}
