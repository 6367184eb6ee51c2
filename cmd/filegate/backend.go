package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/config"
	"github.com/sagarc03/filegate/database"
	"github.com/sagarc03/filegate/filesystem"
	filegatehttp "github.com/sagarc03/filegate/http"
	"github.com/sagarc03/filegate/local"
	filegateminio "github.com/sagarc03/filegate/minio"
)

// backend is an opened object store plus whatever it holds open.
type backend struct {
	store filegate.ObjectStore
	// opener is set for the local backend, which serves its own signed URLs.
	opener filegatehttp.ObjectOpener
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("close backend", "err", err)
		}
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return openMinIO(cfg)
	case "local":
		return openLocal(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}

func openMinIO(cfg *config.Config) (*backend, error) {
	store, err := filegateminio.NewStore(&filegateminio.Config{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		UseSSL:          cfg.MinIO.UseSSL,
		Region:          cfg.Storage.Region,
		VerifyOnPresign: cfg.MinIO.VerifyOnPresign,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("using minio backend", "endpoint", cfg.MinIO.Endpoint, "ssl", cfg.MinIO.UseSSL)
	return &backend{store: store}, nil
}

func openLocal(ctx context.Context, cfg *config.Config) (_ *backend, err error) {
	b := &backend{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, db.Close)

	if err = os.MkdirAll(cfg.Local.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.Local.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}
	b.closers = append(b.closers, root.Close)

	secret := cfg.Local.SecretKey
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		slog.Warn("local.secret_key not set, signed URLs will not survive a restart")
	}

	store, err := local.NewStore(filesystem.NewStore(root), db.GetRepo(), local.Config{
		BaseURL:   strings.TrimSuffix(cfg.Local.PublicURL, "/") + filegatehttp.ObjectsPath,
		AccessKey: cfg.Local.AccessKey,
		SecretKey: secret,
		PageSize:  cfg.Local.PageSize,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("using local backend", "path", cfg.Local.Path, "database", cfg.Database.Type)

	b.store = store
	b.opener = store
	return b, nil
}

// openDatabase connects to the metadata database and makes sure its schema
// is usable.
func openDatabase(ctx context.Context, cfg database.Config) (database.Database, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Debug("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(fmt.Errorf("validate database schema: %w", err),
			errors.New("run `filegate migrate` or set database.auto_migrate"))
	}

	return db, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
