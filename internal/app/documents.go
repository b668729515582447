package app

import (
	"fmt"
	"time"

	"github.com/AshapuriCRM/backend/internal/config"
	"github.com/AshapuriCRM/backend/internal/document"

	"go.uber.org/zap"
)

const chromiumTimeout = 30 * time.Second

// NewDocumentService wires the configured renderer and storage backend.
func NewDocumentService(cfg config.DocumentConfig, logger *zap.Logger) (*document.Service, error) {
	var renderer document.Renderer
	switch cfg.Renderer {
	case config.RendererChromium:
		renderer = document.NewChromiumRenderer(cfg.ChromiumPath, chromiumTimeout)
	case config.RendererFPDF, "":
		renderer = document.NewFPDFRenderer()
	default:
		return nil, fmt.Errorf("unknown document renderer %q", cfg.Renderer)
	}

	var storage document.Storage
	switch cfg.Storage {
	case config.StorageCloudinary:
		s, err := document.NewCloudinaryStorage(cfg.CloudinaryURL, cfg.Folder)
		if err != nil {
			return nil, fmt.Errorf("cloudinary storage: %w", err)
		}
		storage = s
	case config.StorageLocal, "":
		s, err := document.NewLocalStorage(cfg.StorageDir, cfg.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		storage = s
	default:
		return nil, fmt.Errorf("unknown document storage %q", cfg.Storage)
	}

	logger.Info("document service configured",
		zap.String("renderer", cfg.Renderer),
		zap.String("storage", cfg.Storage),
	)
	return document.NewService(renderer, storage, logger), nil
}

func issuerParty(cfg config.Issuer) document.Party {
	return document.Party{
		Name:    cfg.Name,
		Address: cfg.Address,
		GSTIN:   cfg.GSTIN,
		State:   cfg.State,
	}
}
