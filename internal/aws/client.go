package aws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudcontrol"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

type Error string

const (
	ErrNoCredentials      = Error("no AWS credentials found")
	ErrExpiredCredentials = Error("AWS credentials have expired")
	ErrNoConnection       = Error("no connection to AWS")
	ErrInvalidProfile     = Error("invalid AWS profile")
	ErrAccessDenied       = Error("access denied")
	ErrThrottled          = Error("request was throttled")
)

func (e Error) Error() string {
	return string(e)
}

// DefaultRegion is used when neither flags nor the profile name a region.
const DefaultRegion = "us-east-1"

// Connection hands out service clients for the active profile.
type Connection interface {
	Profile() string
	Region() string
	AccountID() string
	CheckConnectivity(ctx context.Context) error
	EC2(region string) *ec2.Client
	S3(region string) *s3.Client
	IAM() *iam.Client
	EKS(region string) *eks.Client
	CloudControl(region string) *cloudcontrol.Client
	CloudFormation(region string) *cloudformation.Client
}

type ClientConfig struct {
	Profile string
	Region  string
	Timeout time.Duration
}

type serviceClients struct {
	ec2            *ec2.Client
	s3             *s3.Client
	iam            *iam.Client
	eks            *eks.Client
	sts            *sts.Client
	cloudcontrol   *cloudcontrol.Client
	cloudformation *cloudformation.Client
}

// APIClient lazily builds one set of service clients per region.
type APIClient struct {
	config    ClientConfig
	clients   map[string]*serviceClients
	accountID string
	log       logrus.FieldLogger
	mx        sync.RWMutex
}

// NewAPIClient returns a client for the given profile and region.
func NewAPIClient(cfg ClientConfig, log logrus.FieldLogger) *APIClient {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &APIClient{
		config:  cfg,
		clients: make(map[string]*serviceClients),
		log:     log.WithField("profile", cfg.Profile),
	}
}

// Profile returns the active profile.
func (c *APIClient) Profile() string {
	return c.config.Profile
}

// Region returns the active region.
func (c *APIClient) Region() string {
	return c.config.Region
}

// AccountID returns the account resolved by CheckConnectivity.
func (c *APIClient) AccountID() string {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.accountID
}

// CheckConnectivity calls STS GetCallerIdentity and caches the account ID.
func (c *APIClient) CheckConnectivity(ctx context.Context) error {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	clients, err := c.getClients(c.config.Region)
	if err != nil {
		return err
	}
	out, err := clients.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConnection, WrapAWSError(err, "get caller identity"))
	}

	c.mx.Lock()
	c.accountID = aws.ToString(out.Account)
	c.mx.Unlock()
	c.log.WithField("account", c.AccountID()).Debug("Connected to AWS")

	return nil
}

// EC2 returns an EC2 client for the specified region.
func (c *APIClient) EC2(region string) *ec2.Client {
	if cc := c.clientsFor(region); cc != nil {
		return cc.ec2
	}
	return nil
}

// S3 returns an S3 client for the specified region.
func (c *APIClient) S3(region string) *s3.Client {
	if cc := c.clientsFor(region); cc != nil {
		return cc.s3
	}
	return nil
}

// IAM returns an IAM client. IAM is global and always uses DefaultRegion.
func (c *APIClient) IAM() *iam.Client {
	if cc := c.clientsFor(DefaultRegion); cc != nil {
		return cc.iam
	}
	return nil
}

// EKS returns an EKS client for the specified region.
func (c *APIClient) EKS(region string) *eks.Client {
	if cc := c.clientsFor(region); cc != nil {
		return cc.eks
	}
	return nil
}

// CloudControl returns a Cloud Control client for the specified region.
func (c *APIClient) CloudControl(region string) *cloudcontrol.Client {
	if cc := c.clientsFor(region); cc != nil {
		return cc.cloudcontrol
	}
	return nil
}

// CloudFormation returns a CloudFormation client for the specified region.
func (c *APIClient) CloudFormation(region string) *cloudformation.Client {
	if cc := c.clientsFor(region); cc != nil {
		return cc.cloudformation
	}
	return nil
}

func (c *APIClient) clientsFor(region string) *serviceClients {
	if region == "" {
		region = c.config.Region
	}
	clients, err := c.getClients(region)
	if err != nil {
		c.log.WithError(err).WithField("region", region).Warn("Unable to build AWS clients")
		return nil
	}
	return clients
}

// getClients retrieves or creates service clients for the specified region.
func (c *APIClient) getClients(region string) (*serviceClients, error) {
	c.mx.RLock()
	if clients, ok := c.clients[region]; ok {
		c.mx.RUnlock()
		return clients, nil
	}
	c.mx.RUnlock()

	c.mx.Lock()
	defer c.mx.Unlock()
	if clients, ok := c.clients[region]; ok {
		return clients, nil
	}

	clients, err := c.createClients(region)
	if err != nil {
		return nil, err
	}
	c.clients[region] = clients

	return clients, nil
}

func (c *APIClient) createClients(region string) (*serviceClients, error) {
	ctx := context.Background()
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if c.config.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.config.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, WrapAWSError(err, "load AWS config")
	}

	return &serviceClients{
		ec2:            ec2.NewFromConfig(cfg),
		s3:             s3.NewFromConfig(cfg),
		iam:            iam.NewFromConfig(cfg),
		eks:            eks.NewFromConfig(cfg),
		sts:            sts.NewFromConfig(cfg),
		cloudcontrol:   cloudcontrol.NewFromConfig(cfg),
		cloudformation: cloudformation.NewFromConfig(cfg),
	}, nil
}

// WrapAWSError wraps AWS SDK errors with additional context.
func WrapAWSError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
			return fmt.Errorf("%w for %s: %s", ErrAccessDenied, operation, apiErr.ErrorMessage())
		case "ExpiredToken", "ExpiredTokenException":
			return fmt.Errorf("%w: %s", ErrExpiredCredentials, operation)
		case "Throttling", "ThrottlingException", "RequestLimitExceeded", "SlowDown":
			return fmt.Errorf("%w during %s: %w", ErrThrottled, operation, err)
		case "InvalidClientTokenId":
			return fmt.Errorf("%w: %s", ErrNoCredentials, operation)
		default:
			return fmt.Errorf("%s failed: %s (%s)", operation, apiErr.ErrorMessage(), apiErr.ErrorCode())
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

// Retryable reports whether a wrapped error may succeed when tried again.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrExpiredCredentials),
		errors.Is(err, ErrNoCredentials),
		errors.Is(err, ErrInvalidProfile):
		return false
	}
	return true
}
