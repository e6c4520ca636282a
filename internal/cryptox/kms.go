package cryptox

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSDecryptAPI is the part of *kms.Client used to unwrap data keys.
type KMSDecryptAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// NewKMSClient builds a KMS client from the default AWS credential chain.
func NewKMSClient(ctx context.Context, region string) (*kms.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return kms.NewFromConfig(cfg), nil
}

// UnwrapKMSKeys decrypts base64-encoded KMS ciphertext blobs into raw codec
// keys, keyed by the same ids. Plaintext keys are returned to the caller and
// never logged.
func UnwrapKMSKeys(ctx context.Context, api KMSDecryptAPI, wrapped map[string]string) (map[string][]byte, error) {
	keys := make(map[string][]byte, len(wrapped))

	for id, blob := range wrapped {
		ct, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			return nil, fmt.Errorf("key %q: invalid base64: %w", id, err)
		}

		out, err := api.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: ct})
		if err != nil {
			return nil, fmt.Errorf("key %q: KMS decrypt failed: %w", id, err)
		}
		if len(out.Plaintext) != KeySize {
			return nil, fmt.Errorf("key %q: unwrapped key must be %d bytes, got %d", id, KeySize, len(out.Plaintext))
		}

		keys[id] = out.Plaintext
	}

	return keys, nil
}
