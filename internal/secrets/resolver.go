// Package secrets resolves sink and channel credentials at startup.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

// ErrNotFound is returned when a secret does not exist or is empty
var ErrNotFound = errors.New("secret not found")

// Resolver looks up a named secret
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// EnvResolver reads secrets from environment variables
type EnvResolver struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvResolver creates a resolver reading PREFIX+name from the environment
func NewEnvResolver(prefix string) *EnvResolver {
	return &EnvResolver{prefix: prefix, lookup: os.LookupEnv}
}

func (r *EnvResolver) Resolve(_ context.Context, name string) (string, error) {
	v, ok := r.lookup(r.prefix + name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, r.prefix+name)
	}
	return v, nil
}

// SecretsManagerAPI is the subset of the Secrets Manager client used here
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerResolver reads secrets from AWS Secrets Manager
type SecretsManagerResolver struct {
	client SecretsManagerAPI
	prefix string
}

// NewSecretsManagerResolver creates a resolver over an existing client
func NewSecretsManagerResolver(client SecretsManagerAPI, prefix string) *SecretsManagerResolver {
	return &SecretsManagerResolver{client: client, prefix: prefix}
}

func (r *SecretsManagerResolver) Resolve(ctx context.Context, name string) (string, error) {
	id := r.prefix + name
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(id)})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}

	value := aws.ToString(out.SecretString)
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return value, nil
}

// NewResolver builds the resolver selected by configuration
func NewResolver(ctx context.Context, cfg config.Secrets, log *zap.Logger) (Resolver, error) {
	switch cfg.Provider {
	case "", "env":
		return NewEnvResolver(cfg.Prefix), nil
	case "aws":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		log.Info("Resolving secrets from AWS Secrets Manager",
			zap.String("region", cfg.Region),
			zap.String("prefix", cfg.Prefix))
		return NewSecretsManagerResolver(secretsmanager.NewFromConfig(awsCfg), cfg.Prefix), nil
	default:
		return nil, &domain.ConfigurationError{
			Key: "SECRETS_PROVIDER",
			Err: fmt.Errorf("unsupported provider: %s (supported: env, aws)", cfg.Provider),
		}
	}
}

// ResolveRequired resolves a secret that must exist, reporting absence as a ConfigurationError
func ResolveRequired(ctx context.Context, r Resolver, name string) (string, error) {
	v, err := r.Resolve(ctx, name)
	if err != nil {
		return "", &domain.ConfigurationError{Key: name, Err: err}
	}
	return v, nil
}
