package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"
	cryptoService "github.com/allisson/textdrop/internal/crypto/service"
)

// serverKeySize is the length of a raw server key in bytes.
const serverKeySize = 32

// RunCreateServerKey generates a random 32-byte server key and prints it as
// environment variables.
//
// Without kmsKeyURI the key is printed as plain base64 in SERVER_KEY. With
// kmsKeyURI it is encrypted by the KMS keeper first and SERVER_KEY holds the
// base64 ciphertext, next to the KMS_PROVIDER and KMS_KEY_URI that unwrap it.
// Key material is zeroed after encoding.
func RunCreateServerKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsProvider, kmsKeyURI string,
) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf("--kms-provider and --kms-key-uri are required together")
	}
	if kmsKeyURI != "" {
		if err := cryptoService.CheckKMSKeyURI(kmsProvider, kmsKeyURI); err != nil {
			return err
		}
	}

	serverKey := make([]byte, serverKeySize)
	if _, err := rand.Read(serverKey); err != nil {
		return fmt.Errorf("failed to generate server key: %w", err)
	}
	defer cryptoDomain.Zero(serverKey)

	if kmsKeyURI == "" {
		_, _ = fmt.Fprintln(writer, "# Server key (plain mode)")
		_, _ = fmt.Fprintln(writer, "# Store it in a secrets manager, anyone holding it can locate and open records")
		_, _ = fmt.Fprintf(writer, "SERVER_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(serverKey))
		return nil
	}

	keeperInterface, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeperInterface.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	// Type assert to get Encrypt method (needed for encryption)
	keeper, ok := keeperInterface.(interface {
		Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	})
	if !ok {
		return fmt.Errorf("KMS keeper does not support encryption")
	}

	ciphertext, err := keeper.Encrypt(ctx, serverKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt server key with KMS: %w", err)
	}

	logger.Info("server key wrapped with kms", slog.String("provider", kmsProvider))

	_, _ = fmt.Fprintln(writer, "# Server key (KMS mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "SERVER_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(ciphertext))

	return nil
}
