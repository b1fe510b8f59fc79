package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// withFallback выполняет обращение к хранилищу. Ожидаемые исходы (ErrNotFound)
// пропускаются как есть, любой другой сбой логируется и заменяется значением
// fallback и ErrServiceUnavailable. Повторов нет.
func withFallback[T any](logger *zap.Logger, op string, fallback T, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err == nil || errors.Is(err, ErrNotFound) {
		return result, err
	}

	logger.Error("Store call failed, using fallback",
		zap.String("op", op),
		zap.Error(err),
	)

	return fallback, fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
}
