package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/sirupsen/logrus"
)

// secretARNPrefix marks a password held in AWS Secrets Manager.
const secretARNPrefix = "arn:aws:secretsmanager:"

// SecretsAPI is the Secrets Manager call the resolver needs.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretResolver swaps Secrets Manager ARNs in target passwords for the
// secret values.
type SecretResolver struct {
	// New builds a client for the region named in an ARN.
	New func(ctx context.Context, region string) (SecretsAPI, error)
	Log *logrus.Logger
}

// NewSecretResolver returns a resolver backed by the AWS default
// credential chain.
func NewSecretResolver(log *logrus.Logger) *SecretResolver {
	return &SecretResolver{New: newSecretsClient, Log: log}
}

func newSecretsClient(ctx context.Context, region string) (SecretsAPI, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// IsSecretRef reports whether s names a Secrets Manager secret.
func IsSecretRef(s string) bool {
	return strings.HasPrefix(s, secretARNPrefix)
}

// Resolve returns t with its password fetched when it is a secret ARN.
// Other targets come back unchanged without touching AWS.
func (r *SecretResolver) Resolve(ctx context.Context, t Target) (Target, error) {
	if !IsSecretRef(t.Password) {
		return t, nil
	}
	arn := t.Password
	c, err := r.New(ctx, regionOf(arn))
	if err != nil {
		return t, err
	}
	out, err := c.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(arn)})
	if err != nil {
		return t, fmt.Errorf("target %q: get secret: %w", t.Name, err)
	}
	if out.SecretString == nil {
		return t, fmt.Errorf("target %q: secret %s has no string value", t.Name, arn)
	}
	r.Log.WithField("target", t.Name).Debug("password resolved from secrets manager")
	t.Password = *out.SecretString
	return t, nil
}

// regionOf extracts the region from arn:aws:secretsmanager:<region>:...
func regionOf(arn string) string {
	parts := strings.SplitN(arn, ":", 5)
	if len(parts) < 5 {
		return ""
	}
	return parts[3]
}
