package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
	cryptoService "github.com/allisson/textdrop/internal/crypto/service"
	"github.com/allisson/textdrop/internal/envelope"
	"github.com/allisson/textdrop/internal/validation"
)

// DefaultMaxPayloadChars bounds a stored payload. It is the largest envelope a
// client can produce, so every plaintext the client accepts can be stored.
var DefaultMaxPayloadChars = envelope.MaxEnvelopeLen

// Config holds the tunables of the blob use case.
type Config struct {
	// Algorithm seals new records. Defaults to AES-256-GCM.
	Algorithm cryptoDomain.Algorithm

	// MaxPayloadChars caps the payload length in characters.
	MaxPayloadChars int

	// AllowPlaintextRecords enables reading "v0:" records. Off by default, since
	// a single flipped bit turns a "v2:" tag into "v0:".
	AllowPlaintextRecords bool
}

// blobUseCase implements the BlobUseCase interface.
type blobUseCase struct {
	serverKey   *cryptoDomain.ServerKey
	records     RecordRepository
	legacy      LegacyRepository
	aeadManager cryptoService.AEADManager
	keyDeriver  cryptoService.KeyDeriver
	format      blobsDomain.Format
	cfg         Config
	logger      *slog.Logger
	migrations  singleflight.Group
}

// LocationFor returns hex(HMAC-SHA256(server key, code)).
func (b *blobUseCase) LocationFor(code string) string {
	return hex.EncodeToString(b.keyDeriver.HMAC(b.serverKey.Bytes(), []byte(code)))
}

// Save validates the request, seals payload under the at-rest key and
// overwrites the record at the code's location.
func (b *blobUseCase) Save(ctx context.Context, code, payload string) error {
	code = validation.NormalizeFetchCode(code)
	if err := validation.ValidateFetchCode(code); err != nil {
		return err
	}
	if err := validation.CheckMaxChars("payload", payload, b.cfg.MaxPayloadChars); err != nil {
		return fmt.Errorf("%w: %w", blobsDomain.ErrPayloadTooLarge, err)
	}

	return b.store(ctx, code, []byte(payload))
}

// Fetch opens the record at the code's location. Legacy records are upgraded
// in place, and a missing record falls back to the legacy plaintext store
// when one is configured.
func (b *blobUseCase) Fetch(ctx context.Context, code string) (string, error) {
	code = validation.NormalizeFetchCode(code)
	if err := validation.ValidateFetchCode(code); err != nil {
		return "", err
	}

	location := b.LocationFor(code)
	stored, err := b.records.Get(ctx, location)
	if err != nil {
		if errors.Is(err, blobsDomain.ErrRecordNotFound) {
			return b.migrateLegacy(ctx, code, location)
		}
		return "", err
	}

	return b.openStored(ctx, code, location, stored)
}

// openStored parses and opens a stored record, upgrading legacy formats.
func (b *blobUseCase) openStored(ctx context.Context, code, location string, stored []byte) (string, error) {
	record, err := blobsDomain.ParseRecord(stored)
	if err != nil {
		return "", err
	}

	payload, err := b.open(code, location, record)
	if err != nil {
		return "", err
	}

	if record.Format.IsLegacy() {
		if err := b.store(ctx, code, payload); err != nil {
			b.logger.Warn("failed to upgrade legacy record",
				slog.String("format", string(record.Format)),
				slog.Any("error", err),
			)
		} else {
			b.logger.Info("upgraded legacy record", slog.String("format", string(record.Format)))
		}
	}

	return string(payload), nil
}

// store seals payload and writes it at the code's location.
func (b *blobUseCase) store(ctx context.Context, code string, payload []byte) error {
	location := b.LocationFor(code)

	key, err := b.recordKey(code)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(key)

	alg, _ := b.format.Algorithm()
	cipher, err := b.aeadManager.CreateCipher(key, alg)
	if err != nil {
		return fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}

	format, err := blobsDomain.FormatFor(cipher.Algorithm())
	if err != nil {
		return err
	}

	ciphertext, nonce, err := cipher.Encrypt(payload, []byte(location))
	if err != nil {
		return err
	}

	return b.records.Put(ctx, location, blobsDomain.NewRecord(format, nonce, ciphertext).Marshal())
}

// open authenticates and decrypts a parsed record.
func (b *blobUseCase) open(code, location string, record *blobsDomain.Record) ([]byte, error) {
	var (
		key []byte
		aad []byte
		err error
	)

	switch record.Format {
	case blobsDomain.FormatAESGCM, blobsDomain.FormatChaCha20:
		key, err = b.recordKey(code)
		if err != nil {
			return nil, err
		}
		aad = []byte(location)
	case blobsDomain.FormatLegacyAESGCM:
		key = b.keyDeriver.HMAC(b.serverKey.Bytes(), []byte(code))
	case blobsDomain.FormatLegacyPlain:
		if !b.cfg.AllowPlaintextRecords {
			return nil, fmt.Errorf("%w: plaintext records are disabled", blobsDomain.ErrCorruptRecord)
		}
		return record.Payload, nil
	default:
		return nil, blobsDomain.ErrCorruptRecord
	}
	defer cryptoDomain.Zero(key)

	alg, _ := record.Format.Algorithm()
	cipher, err := b.aeadManager.CreateCipher(key, alg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}

	payload, err := cipher.Decrypt(record.Ciphertext, record.Nonce, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blobsDomain.ErrCorruptRecord, err)
	}
	return payload, nil
}

// recordKey derives the at-rest key of a fetch code.
func (b *blobUseCase) recordKey(code string) ([]byte, error) {
	return b.keyDeriver.HKDF(b.serverKey.Bytes(), blobsDomain.RecordKeyInfo+code)
}

// migrateLegacy moves a first generation plaintext drop into the record store.
// Concurrent fetches of the same code share one migration, and a fetch that
// lost the race reads the freshly written record.
func (b *blobUseCase) migrateLegacy(ctx context.Context, code, location string) (string, error) {
	if b.legacy == nil {
		return "", blobsDomain.ErrRecordNotFound
	}

	// The migration is shared with every fetch that joins it, so it must not
	// end with the first caller's request.
	ctx = context.WithoutCancel(ctx)
	v, err, _ := b.migrations.Do(location, func() (any, error) {
		stored, err := b.records.Get(ctx, location)
		if err == nil {
			return b.openStored(ctx, code, location, stored)
		}
		if !errors.Is(err, blobsDomain.ErrRecordNotFound) {
			return "", err
		}

		text, err := b.legacy.Get(ctx, code)
		if err != nil {
			return "", err
		}

		if err := b.store(ctx, code, []byte(text)); err != nil {
			b.logger.Error("failed to migrate legacy text", slog.Any("error", err))
			return text, nil
		}

		if err := b.legacy.Delete(ctx, code); err != nil {
			b.logger.Warn("failed to remove migrated legacy text", slog.Any("error", err))
		} else {
			b.logger.Info("migrated legacy text")
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// NewBlobUseCase creates a new BlobUseCase. legacy may be nil when legacy
// migration is disabled.
func NewBlobUseCase(
	serverKey *cryptoDomain.ServerKey,
	records RecordRepository,
	legacy LegacyRepository,
	aeadManager cryptoService.AEADManager,
	keyDeriver cryptoService.KeyDeriver,
	cfg Config,
	logger *slog.Logger,
) (BlobUseCase, error) {
	if serverKey == nil {
		return nil, cryptoDomain.ErrServerKeyNotSet
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = cryptoDomain.AESGCM
	}
	if cfg.MaxPayloadChars <= 0 {
		cfg.MaxPayloadChars = DefaultMaxPayloadChars
	}
	format, err := blobsDomain.FormatFor(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &blobUseCase{
		serverKey:   serverKey,
		records:     records,
		legacy:      legacy,
		aeadManager: aeadManager,
		keyDeriver:  keyDeriver,
		format:      format,
		cfg:         cfg,
		logger:      logger,
	}, nil
}
