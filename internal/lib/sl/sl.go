// Package sl содержит мелкие помощники для структурированного логирования slog.
package sl

import "log/slog"

// Err оборачивает ошибку в slog.Attr с ключом "error",
// чтобы ошибки во всех сервисах логировались единообразно:
//
//	log.Error("failed to close session", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
