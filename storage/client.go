package storage

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"clipforge/config"
	"clipforge/fault"
	"clipforge/logger"
)

// newS3Client builds the one S3-compatible client used for GETs, PUTs, HEADs
// and presigning. A GCS HMAC pair and an AWS access-key pair are
// interchangeable here; only the configured endpoint differs between
// providers (GCS, R2, AWS).
func newS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	if !cfg.HasCredentials() {
		return nil, fault.New(fault.NoPresignMethod, "no object storage credentials configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fault.Wrap(err, fault.TransferFailed, "failed to load storage client config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
		o.UsePathStyle = cfg.AddressingStyle == "path"
	})

	logger.Debugf("object storage client ready: endpoint=%s region=%s addressing=%s",
		cfg.EndpointURL, cfg.Region, cfg.AddressingStyle)
	return client, nil
}
