package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/kevin07696/payment-metrics/internal/adapters/ports"
)

// VaultConfig contains configuration for HashiCorp Vault adapter
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Token for token authentication
	Token string

	// Vault namespace (Vault Enterprise)
	Namespace string

	// KV v2 secrets engine mount path (default: "secret")
	MountPath string
}

// DefaultVaultConfig returns default configuration for Vault adapter
func DefaultVaultConfig(address, token string) *VaultConfig {
	return &VaultConfig{
		Address:   address,
		Token:     token,
		MountPath: "secret",
	}
}

// vaultAdapter implements the SecretManagerAdapter port for HashiCorp Vault
type vaultAdapter struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
}

// NewVaultAdapter creates a new HashiCorp Vault adapter
func NewVaultAdapter(cfg *VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	logger.Info("Vault adapter initialized",
		zap.String("address", cfg.Address),
		zap.String("mount_path", cfg.MountPath),
	)

	return &vaultAdapter{
		client: client,
		config: cfg,
		logger: logger,
	}, nil
}

// GetSecret retrieves a secret from the KV v2 engine. The secret's
// "value" key holds the credential.
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	a.logger.Debug("Retrieving secret from Vault", zap.String("path", path))

	kv := a.client.KVv2(a.config.MountPath)
	secret, err := kv.Get(ctx, path)
	if err != nil {
		a.logger.Error("Failed to retrieve secret",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	value, ok := secret.Data["value"].(string)
	if !ok {
		return nil, fmt.Errorf("secret %s has no string 'value' key", path)
	}

	return &ports.Secret{
		Value:   value,
		Version: fmt.Sprintf("%d", secret.VersionMetadata.Version),
	}, nil
}
