package identity_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chris/skymiles/pkg/identity"
	"github.com/chris/skymiles/pkg/identity/mocks"
)

var creds = identity.Credentials{Email: "ada@example.com", Password: "correct-horse"}

func TestCognitoRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("SignUp", mock.Anything, mock.MatchedBy(func(in *cip.SignUpInput) bool {
			return aws.ToString(in.ClientId) == "app-client" &&
				strings.HasPrefix(aws.ToString(in.Username), "user_") &&
				len(in.UserAttributes) == 3 &&
				aws.ToString(in.UserAttributes[0].Value) == "ada@example.com"
		})).Return(&cip.SignUpOutput{}, nil).Once()

		err := p.Register(context.Background(), creds, identity.Profile{FirstName: "Ada", LastName: "Lovelace"})

		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("User Exists", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("SignUp", mock.Anything, mock.Anything).Return(nil, &types.UsernameExistsException{}).Once()

		err := p.Register(context.Background(), creds, identity.Profile{})

		assert.ErrorIs(t, err, identity.ErrUserExists)
	})

	t.Run("Weak Password", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("SignUp", mock.Anything, mock.Anything).Return(nil, &types.InvalidPasswordException{}).Once()

		err := p.Register(context.Background(), creds, identity.Profile{})

		assert.ErrorIs(t, err, identity.ErrInvalidInput)
	})
}

func TestCognitoAuthenticate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("InitiateAuth", mock.Anything, mock.MatchedBy(func(in *cip.InitiateAuthInput) bool {
			return in.AuthFlow == types.AuthFlowTypeUserPasswordAuth && in.AuthParameters["USERNAME"] == "ada@example.com"
		})).Return(&cip.InitiateAuthOutput{
			AuthenticationResult: &types.AuthenticationResultType{AccessToken: aws.String("token"), ExpiresIn: 3600},
		}, nil).Once()

		session, err := p.Authenticate(context.Background(), creds)

		require.NoError(t, err)
		assert.Equal(t, "token", session.AccessToken)
		client.AssertExpectations(t)
	})

	t.Run("Challenge Required", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("InitiateAuth", mock.Anything, mock.Anything).Return(&cip.InitiateAuthOutput{
			ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
		}, nil).Once()

		_, err := p.Authenticate(context.Background(), creds)

		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("InitiateAuth", mock.Anything, mock.Anything).Return(nil, &types.NotAuthorizedException{}).Once()

		_, err := p.Authenticate(context.Background(), creds)

		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("Provider Down", func(t *testing.T) {
		client := new(mocks.CognitoAPI)
		p := identity.NewCognitoProvider(client, "app-client")

		client.On("InitiateAuth", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout")).Once()

		_, err := p.Authenticate(context.Background(), creds)

		assert.ErrorIs(t, err, identity.ErrUnavailable)
	})
}

func TestMemoryProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("Register And Authenticate", func(t *testing.T) {
		p := identity.NewMemoryProvider()

		require.NoError(t, p.Register(ctx, creds, identity.Profile{}))
		session, err := p.Authenticate(ctx, creds)

		require.NoError(t, err)
		assert.NotEmpty(t, session.AccessToken)
	})

	t.Run("Duplicate User", func(t *testing.T) {
		p := identity.NewMemoryProvider()
		require.NoError(t, p.Register(ctx, creds, identity.Profile{}))

		assert.ErrorIs(t, p.Register(ctx, creds, identity.Profile{}), identity.ErrUserExists)
	})

	t.Run("Invalid Passwords", func(t *testing.T) {
		p := identity.NewMemoryProvider()

		short := identity.Credentials{Email: "x@example.com", Password: "short"}
		assert.ErrorIs(t, p.Register(ctx, short, identity.Profile{}), identity.ErrInvalidInput)

		long := identity.Credentials{Email: "x@example.com", Password: strings.Repeat("a", 73)}
		assert.ErrorIs(t, p.Register(ctx, long, identity.Profile{}), identity.ErrInvalidInput)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		p := identity.NewMemoryProvider()
		require.NoError(t, p.Register(ctx, creds, identity.Profile{}))

		_, err := p.Authenticate(ctx, identity.Credentials{Email: creds.Email, Password: "wrong-password"})
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

		_, err = p.Authenticate(ctx, identity.Credentials{Email: creds.Email, Password: ""})
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("Unknown User", func(t *testing.T) {
		p := identity.NewMemoryProvider()

		_, err := p.Authenticate(ctx, identity.Credentials{Email: "nobody@example.com", Password: "whatever1"})
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})
}
