package state

import (
	"context"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	ferrors "git.home.luguber.info/inful/pagewatcher/internal/foundation/errors"
)

// Open constructs the backend selected by cfg.
func Open(ctx context.Context, cfg config.StateConfig) (Backend, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileBackend(cfg.Dir), nil
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	case config.BackendNATS:
		b, err = NewNATSBackend(ctx, cfg.NATSURL, cfg.Bucket)
	case config.BackendSQLite:
		b, err = NewSQLBackend(ctx, DialectSQLite, cfg.DSN)
	case config.BackendPostgres:
		b, err = NewSQLBackend(ctx, DialectPostgres, cfg.DSN)
	default:
		return nil, ferrors.ConfigError("unsupported state backend").
			WithContext("backend", string(cfg.Backend)).
			Build()
	}
	if err != nil {
		return nil, ferrors.StorageError("failed to open state backend").WithCause(err).
			WithContext("backend", string(cfg.Backend)).
			Build()
	}
	return b, nil
}
