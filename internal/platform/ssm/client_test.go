package ssm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	lastInput *ssm.GetParameterInput
	value     *string
	err       error
}

func (f *fakeAPI) GetParameter(_ context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: f.value},
	}, nil
}

func TestParameter_RequestsDecryption(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{value: aws.String("squeamish ossifrage")}
	client := NewClientFromAPI(api)

	value, err := client.Parameter(context.Background(), "/stack/agent/token", true)
	require.NoError(t, err)

	assert.Equal(t, "squeamish ossifrage", value)
	require.NotNil(t, api.lastInput)
	assert.Equal(t, "/stack/agent/token", aws.ToString(api.lastInput.Name))
	assert.True(t, aws.ToBool(api.lastInput.WithDecryption))
}

func TestParameter_APIError_DoesNotCarryValue(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: errors.New("access denied")}
	client := NewClientFromAPI(api)

	_, err := client.Parameter(context.Background(), "/stack/agent/token", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/stack/agent/token")
}

func TestParameter_EmptyResponse(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	client := NewClientFromAPI(api)

	_, err := client.Parameter(context.Background(), "/stack/agent/token", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no value")
}
