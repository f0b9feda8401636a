package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores submission papers in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores the paper under key and returns its secure URL. The
// directory part of key becomes a sub-folder and the file name the public
// id, so uploading the same key again replaces the previous asset.
func (s *Service) Upload(ctx context.Context, key string, reader io.Reader) (string, error) {
	folder, publicID := placement(s.folder, key)

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:         folder,
		PublicID:       publicID,
		ResourceType:   "auto",
		Overwrite:      api.Bool(true),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Int("bytes", result.Bytes).Msg("submission stored")
	return result.SecureURL, nil
}

// placement splits key into the destination folder and a public id made of
// URL-safe characters. The extension is dropped; Cloudinary derives it from
// the detected format.
func placement(base, key string) (string, string) {
	key = strings.Trim(path.Clean("/"+key), "/")
	dir, file := path.Split(key)

	folder := strings.Trim(path.Join(strings.Trim(base, "/"), dir), "/")
	name := strings.TrimSuffix(file, path.Ext(file))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	name = strings.Trim(name, "-")
	if name == "" {
		name = "paper"
	}
	return folder, name
}
