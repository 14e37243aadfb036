package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/textdrop/internal/crypto/domain"

	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// kmsSchemes maps each KMS_PROVIDER to the key URI scheme of its keeper.
var kmsSchemes = map[string]string{
	"localsecrets":  "base64key",
	"gcpkms":        "gcpkms",
	"awskms":        "awskms",
	"azurekeyvault": "azurekeyvault",
	"hashivault":    "hashivault",
}

// KMSProviders lists the supported KMS_PROVIDER values, sorted.
func KMSProviders() []string {
	providers := make([]string, 0, len(kmsSchemes))
	for p := range kmsSchemes {
		providers = append(providers, p)
	}
	slices.Sort(providers)
	return providers
}

// CheckKMSKeyURI reports whether keyURI is a key URI of provider, so a
// server key wrapped by one KMS is never handed to another.
func CheckKMSKeyURI(provider, keyURI string) error {
	scheme, ok := kmsSchemes[provider]
	if !ok {
		return fmt.Errorf("unsupported KMS provider %q, expected one of %s",
			provider, strings.Join(KMSProviders(), ", "))
	}
	u, err := url.Parse(keyURI)
	if err != nil {
		return fmt.Errorf("invalid KMS key URI: %w", err)
	}
	if u.Scheme != scheme {
		return fmt.Errorf("KMS key URI for %s must start with %s://", provider, scheme)
	}
	return nil
}

// KMSService opens the keepers that wrap and unwrap the server key.
type KMSService interface {
	// OpenKeeper opens the keeper for keyURI. The caller closes it.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService returns a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}
