package app

import (
	"fmt"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
	cryptoService "github.com/allisson/textdrop/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeyDeriver returns the key derivation service.
func (c *Container) KeyDeriver() cryptoService.KeyDeriver {
	c.keyDeriverInit.Do(func() {
		c.keyDeriver = cryptoService.NewKeyDeriver()
	})
	return c.keyDeriver
}

// ServerKey returns the server key loaded from the configuration.
func (c *Container) ServerKey() (*cryptoDomain.ServerKey, error) {
	var err error
	c.serverKeyInit.Do(func() {
		c.serverKey, err = c.initServerKey()
		if err != nil {
			c.initErrors["serverKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["serverKey"]; exists {
		return nil, storedErr
	}
	return c.serverKey, nil
}

// initServerKey decodes SERVER_KEY, unwrapping it with the KMS key at
// KMS_KEY_URI when one is configured, or folds SERVER_SECRET into a key.
func (c *Container) initServerKey() (*cryptoDomain.ServerKey, error) {
	logger := c.Logger()

	var keeper cryptoDomain.KMSKeeper
	if c.config.KMSKeyURI != "" && c.config.ServerKey != "" {
		if err := cryptoService.CheckKMSKeyURI(c.config.KMSProvider, c.config.KMSKeyURI); err != nil {
			return nil, err
		}
		opened, err := c.KMSService().OpenKeeper(c.ctx, c.config.KMSKeyURI)
		if err != nil {
			return nil, fmt.Errorf("failed to open kms keeper for server key: %w", err)
		}
		defer func() {
			if closeErr := opened.Close(); closeErr != nil {
				logger.Warn("failed to close kms keeper", "error", closeErr)
			}
		}()
		keeper = opened
		logger.Info("unwrapping server key with kms", "provider", c.config.KMSProvider)
	}

	serverKey, err := cryptoDomain.LoadServerKey(c.ctx, c.config.ServerKey, c.config.ServerSecret, keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to load server key: %w", err)
	}
	return serverKey, nil
}
