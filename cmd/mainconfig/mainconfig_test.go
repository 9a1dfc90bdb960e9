package mainconfig

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appconfig "github.com/wolfman30/healthcare-assistant/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:          "us-west-2",
		AWSAccessKeyID:     " test-key ",
		AWSSecretAccessKey: "test-secret",
	}

	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", creds.AccessKeyID)
	assert.Equal(t, "test-secret", creds.SecretAccessKey)
}

func TestNewSESClientEndpointOverride(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
	}

	client, err := NewSESClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", aws.ToString(client.Options().BaseEndpoint))
	assert.Equal(t, "us-east-1", client.Options().Region)

	cfg.AWSEndpointOverride = ""
	client, err = NewSESClient(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, client.Options().BaseEndpoint)
}
