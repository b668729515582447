package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service renders, checks and stores invoice documents.
type Service struct {
	renderer Renderer
	storage  Storage
	logger   *zap.Logger
}

func NewService(renderer Renderer, storage Storage, logger ...*zap.Logger) *Service {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.L()
	}
	return &Service{
		renderer: renderer,
		storage:  storage,
		logger:   l.Named("document.service"),
	}
}

// Publish renders the invoice, validates the PDF and uploads it under the
// invoice number. Re-publishing overwrites the previous document.
func (s *Service) Publish(ctx context.Context, inv Invoice) (Stored, error) {
	pdf, err := s.renderer.Render(ctx, inv)
	if err != nil {
		return Stored{}, fmt.Errorf("render %s: %w", inv.Number, err)
	}

	pages, err := Inspect(pdf)
	if err != nil {
		return Stored{}, fmt.Errorf("inspect %s: %w", inv.Number, err)
	}

	key := Key(inv.Number)
	url, err := s.storage.Put(ctx, key, pdf)
	if err != nil {
		return Stored{}, err
	}

	s.logger.Info("document stored",
		zap.String("invoice_number", inv.Number),
		zap.String("key", key),
		zap.Int("pages", pages),
		zap.Int("bytes", len(pdf)),
	)
	return Stored{URL: url, Key: key, Pages: pages}, nil
}

func (s *Service) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return err
	}
	s.logger.Info("document removed", zap.String("key", key))
	return nil
}

func (s *Service) Workbook(inv Invoice) ([]byte, error) {
	return Workbook(inv)
}
