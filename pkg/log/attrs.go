package log

import "log/slog"

func RunID[T ~string](id T) slog.Attr {
	return slog.String("run_id", string(id))
}

func StepIndex(idx int) slog.Attr {
	return slog.Int("step_index", idx)
}

func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func Status(status int) slog.Attr {
	return slog.Int("status", status)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}
