/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: ses.go
Description: Amazon SES transport. Raw MIME messages go out through SendRawEmail; errors
the service reports are classified as provider errors, anything that never reached the
service (credentials, network) as transport errors.
*/

package mailer

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/smithy-go"
	"github.com/kleascm/fuzz-report/pkg/failure"
)

// Sender submits a raw MIME message and returns the provider's message id
type Sender interface {
	SendRaw(ctx context.Context, source string, destinations []string, raw []byte) (string, error)
}

// SESAPI is the subset of the SES client used by SESSender
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESSender sends raw messages through Amazon SES
type SESSender struct {
	client SESAPI
}

// NewSESSender wraps an SES client
func NewSESSender(client SESAPI) *SESSender {
	return &SESSender{client: client}
}

// NewSESSenderForRegion builds an SES client from the default credential chain
func NewSESSenderForRegion(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, failure.Wrap(failure.KindTransport, "ses", err)
	}
	return NewSESSender(ses.NewFromConfig(cfg)), nil
}

// SendRaw implements Sender
func (s *SESSender) SendRaw(ctx context.Context, source string, destinations []string, raw []byte) (string, error) {
	out, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(source),
		Destinations: destinations,
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", failure.Wrap(failure.KindProvider, "", &ProviderError{api: apiErr})
		}
		return "", failure.Wrap(failure.KindTransport, "ses", err)
	}
	return aws.ToString(out.MessageId), nil
}

// ProviderError is a send rejected by the email service. Its text is the
// service's own message.
type ProviderError struct {
	api smithy.APIError
}

func (e *ProviderError) Error() string {
	return e.api.ErrorMessage()
}

// Code returns the service error code
func (e *ProviderError) Code() string {
	return e.api.ErrorCode()
}

func (e *ProviderError) Unwrap() error {
	return e.api
}
