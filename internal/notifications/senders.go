package notifications

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SESService is the slice of the SES client the email sender needs. Kept as
// an interface for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the slice of the SNS client the SMS sender needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// EmailSender delivers a rendered email message.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a rendered SMS message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// SESSender sends email through AWS SES.
type SESSender struct {
	client    SESService
	fromEmail string
}

// NewSESSender builds an SES-backed email sender using the default AWS
// credential chain.
func NewSESSender(ctx context.Context, region, fromEmail string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESSender{client: ses.NewFromConfig(cfg), fromEmail: fromEmail}, nil
}

// NewSESSenderWithClient injects a client, for tests.
func NewSESSenderWithClient(client SESService, fromEmail string) *SESSender {
	return &SESSender{client: client, fromEmail: fromEmail}
}

func (s *SESSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	return err
}

// SNSSender sends SMS through AWS SNS.
type SNSSender struct {
	client SNSService
}

// NewSNSSender builds an SNS-backed SMS sender using the default AWS
// credential chain.
func NewSNSSender(ctx context.Context, region string) (*SNSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSSender{client: sns.NewFromConfig(cfg)}, nil
}

// NewSNSSenderWithClient injects a client, for tests.
func NewSNSSenderWithClient(client SNSService) *SNSSender {
	return &SNSSender{client: client}
}

func (s *SNSSender) SendSMS(ctx context.Context, to, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}
