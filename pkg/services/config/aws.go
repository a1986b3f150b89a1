package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// AWS loads the default AWS SDK configuration for the configured region.
func (c *Config) AWS(ctx context.Context) (aws.Config, error) {
	region := c.AWSRegion
	if region == "" {
		region = DefaultAWSRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return awsCfg, nil
}
