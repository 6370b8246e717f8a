package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/google/uuid"
)

//go:generate go run github.com/vektra/mockery/v2 --name CognitoAPI --output mocks

// CognitoAPI is the subset of the Cognito user pool client used by CognitoProvider.
type CognitoAPI interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
}

// CognitoProvider registers and authenticates users against a Cognito user pool.
// The pool is expected to allow sign-in with the email alias.
type CognitoProvider struct {
	Client   CognitoAPI
	ClientID string
}

// Make sure we conform to the interface
var _ Provider = (*CognitoProvider)(nil)

// NewCognitoProvider creates a CognitoProvider for an app client.
func NewCognitoProvider(client CognitoAPI, clientID string) *CognitoProvider {
	return &CognitoProvider{Client: client, ClientID: clientID}
}

// Register signs up a user. Cognito rejects email-formatted usernames when email
// is an alias, so the username is generated and the email goes in as an attribute.
func (p *CognitoProvider) Register(ctx context.Context, creds Credentials, profile Profile) error {
	attributes := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(creds.Email)},
	}
	if profile.FirstName != "" {
		attributes = append(attributes, types.AttributeType{Name: aws.String("given_name"), Value: aws.String(profile.FirstName)})
	}
	if profile.LastName != "" {
		attributes = append(attributes, types.AttributeType{Name: aws.String("family_name"), Value: aws.String(profile.LastName)})
	}

	_, err := p.Client.SignUp(ctx, &cip.SignUpInput{
		ClientId:       aws.String(p.ClientID),
		Username:       aws.String("user_" + uuid.NewString()),
		Password:       aws.String(creds.Password),
		UserAttributes: attributes,
	})
	if err != nil {
		return mapCognitoError("sign up", err)
	}
	return nil
}

// Authenticate runs the USER_PASSWORD_AUTH flow. Any challenge, such as a forced
// password change, counts as a failed login.
func (p *CognitoProvider) Authenticate(ctx context.Context, creds Credentials) (*Session, error) {
	out, err := p.Client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId: aws.String(p.ClientID),
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": creds.Email,
			"PASSWORD": creds.Password,
		},
	})
	if err != nil {
		return nil, mapCognitoError("initiate auth", err)
	}
	if out.ChallengeName != "" || out.AuthenticationResult == nil {
		return nil, fmt.Errorf("%w: challenge %s required", ErrInvalidCredentials, out.ChallengeName)
	}

	return &Session{
		AccessToken: aws.ToString(out.AuthenticationResult.AccessToken),
		IdToken:     aws.ToString(out.AuthenticationResult.IdToken),
		ExpiresIn:   out.AuthenticationResult.ExpiresIn,
	}, nil
}

func mapCognitoError(op string, err error) error {
	var (
		exists       *types.UsernameExistsException
		notAuth      *types.NotAuthorizedException
		notFound     *types.UserNotFoundException
		notConfirmed *types.UserNotConfirmedException
		badPassword  *types.InvalidPasswordException
		badParam     *types.InvalidParameterException
	)
	switch {
	case errors.As(err, &exists):
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	case errors.As(err, &notAuth), errors.As(err, &notFound), errors.As(err, &notConfirmed):
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	case errors.As(err, &badPassword), errors.As(err, &badParam):
		return fmt.Errorf("%s: %w: %v", op, ErrInvalidInput, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
}
