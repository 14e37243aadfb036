package app

import (
	"fmt"

	blobsHTTP "github.com/allisson/textdrop/internal/blobs/http"
	blobsRepository "github.com/allisson/textdrop/internal/blobs/repository"
	blobsUseCase "github.com/allisson/textdrop/internal/blobs/usecase"
	"github.com/allisson/textdrop/internal/config"
	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
	"github.com/allisson/textdrop/internal/http"
)

// RecordStore is a record repository that also backs the readiness probe.
type RecordStore interface {
	blobsUseCase.RecordRepository
	http.Pinger
}

// RecordStore returns the record repository selected by STORAGE_DRIVER.
func (c *Container) RecordStore() (RecordStore, error) {
	var err error
	c.recordStoreInit.Do(func() {
		c.recordStore, err = c.initRecordStore()
		if err != nil {
			c.initErrors["recordStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordStore"]; exists {
		return nil, storedErr
	}
	return c.recordStore, nil
}

// LegacyRepository returns the legacy plaintext reader, or nil when legacy
// migration is disabled.
func (c *Container) LegacyRepository() blobsUseCase.LegacyRepository {
	c.legacyRepositoryInit.Do(func() {
		if c.config.LegacyMigrationEnabled {
			c.legacyRepository = blobsRepository.NewFilesystemLegacyRepository(c.config.StorageDir, c.Logger())
		}
	})
	return c.legacyRepository
}

// BlobUseCase returns the blob use case decorated with business metrics.
func (c *Container) BlobUseCase() (blobsUseCase.BlobUseCase, error) {
	var err error
	c.blobUseCaseInit.Do(func() {
		c.blobUseCase, err = c.initBlobUseCase()
		if err != nil {
			c.initErrors["blobUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blobUseCase"]; exists {
		return nil, storedErr
	}
	return c.blobUseCase, nil
}

// BlobHandler returns the HTTP handler of the texts endpoint.
func (c *Container) BlobHandler() (*blobsHTTP.BlobHandler, error) {
	var err error
	c.blobHandlerInit.Do(func() {
		c.blobHandler, err = c.initBlobHandler()
		if err != nil {
			c.initErrors["blobHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blobHandler"]; exists {
		return nil, storedErr
	}
	return c.blobHandler, nil
}

// initRecordStore creates the record repository based on the storage driver.
func (c *Container) initRecordStore() (RecordStore, error) {
	logger := c.Logger()

	switch c.config.StorageDriver {
	case config.StorageDriverFilesystem:
		repo, err := blobsRepository.NewFilesystemRecordRepository(c.config.StorageDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open storage directory: %w", err)
		}
		return repo, nil
	case config.StorageDriverBlob:
		repo, err := blobsRepository.OpenBlobRecordRepository(c.ctx, c.config.BlobBucketURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open blob bucket: %w", err)
		}
		c.mu.Lock()
		c.closers = append(c.closers, repo)
		c.mu.Unlock()
		return repo, nil
	case config.StorageDriverPostgres:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for record repository: %w", err)
		}
		return blobsRepository.NewPostgreSQLRecordRepository(db, logger), nil
	case config.StorageDriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for record repository: %w", err)
		}
		return blobsRepository.NewMySQLRecordRepository(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", c.config.StorageDriver)
	}
}

// initBlobUseCase creates the blob use case with all its dependencies.
func (c *Container) initBlobUseCase() (blobsUseCase.BlobUseCase, error) {
	serverKey, err := c.ServerKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get server key for blob use case: %w", err)
	}

	store, err := c.RecordStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get record store for blob use case: %w", err)
	}

	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.StorageAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to parse storage algorithm: %w", err)
	}

	useCase, err := blobsUseCase.NewBlobUseCase(
		serverKey,
		store,
		c.LegacyRepository(),
		c.AEADManager(),
		c.KeyDeriver(),
		blobsUseCase.Config{
			Algorithm:             algorithm,
			MaxPayloadChars:       c.config.MaxPayloadChars,
			AllowPlaintextRecords: c.config.LegacyPlaintextRecordsEnabled,
		},
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for blob use case: %w", err)
	}

	return blobsUseCase.NewBlobUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initBlobHandler creates the texts handler.
func (c *Container) initBlobHandler() (*blobsHTTP.BlobHandler, error) {
	useCase, err := c.BlobUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get blob use case for blob handler: %w", err)
	}
	return blobsHTTP.NewBlobHandler(useCase, c.Logger()), nil
}
