// Package secrets reads signing keys and passwords from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/sirupsen/logrus"

	"github.com/traffic-tacos/movie-api/internal/config"
)

// Reader fetches secret values
type Reader struct {
	client secretsmanageriface.SecretsManagerAPI
	logger *logrus.Logger
}

// NewReader creates a Secrets Manager client for the configured region.
func NewReader(awsCfg *config.AWSConfig, logger *logrus.Logger) (*Reader, error) {
	opts := session.Options{
		Config: aws.Config{Region: aws.String(awsCfg.Region)},
	}
	if awsCfg.Profile != "" {
		opts.Profile = awsCfg.Profile
		opts.SharedConfigState = session.SharedConfigEnable
	}

	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewReaderWithClient(secretsmanager.New(sess), logger), nil
}

func NewReaderWithClient(client secretsmanageriface.SecretsManagerAPI, logger *logrus.Logger) *Reader {
	return &Reader{client: client, logger: logger}
}

// Get returns the secret string. When key is set and the secret is a JSON
// object, the value under key is returned instead.
func (r *Reader) Get(ctx context.Context, name, key string) (string, error) {
	result, err := r.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to retrieve secret '%s': %w", name, err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret '%s' has no string value", name)
	}

	value := *result.SecretString
	if key != "" && strings.HasPrefix(strings.TrimSpace(value), "{") {
		var fields map[string]string
		if err := json.Unmarshal([]byte(value), &fields); err != nil {
			return "", fmt.Errorf("secret '%s' is not a flat JSON object: %w", name, err)
		}
		v, ok := fields[key]
		if !ok {
			return "", fmt.Errorf("secret '%s' has no key '%s'", name, key)
		}
		value = v
	}
	if value == "" {
		return "", fmt.Errorf("secret '%s' is empty", name)
	}

	r.logger.WithField("secret_name", name).Info("Successfully retrieved secret from Secrets Manager")
	return value, nil
}
