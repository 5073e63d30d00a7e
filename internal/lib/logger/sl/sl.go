package sl

import (
	"log/slog"
)

// Err creates a slog.Attr with the given error.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// User creates a slog.Attr carrying the acting user's id.
func User(id string) slog.Attr {
	return slog.Attr{
		Key:   "user_id",
		Value: slog.StringValue(id),
	}
}

// Task creates a slog.Attr carrying the affected task's id.
func Task(id string) slog.Attr {
	return slog.Attr{
		Key:   "task_id",
		Value: slog.StringValue(id),
	}
}
