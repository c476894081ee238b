package config

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// fakeSSM answers GetParameters from a map and records batch sizes.
type fakeSSM struct {
	values  map[string]string
	err     error
	batches []int
}

func (f *fakeSSM) GetParameters(_ context.Context, in *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	f.batches = append(f.batches, len(in.Names))
	if f.err != nil {
		return nil, f.err
	}
	if in.WithDecryption == nil || !*in.WithDecryption {
		return nil, errors.New("expected WithDecryption")
	}
	out := &ssm.GetParametersOutput{}
	for _, name := range in.Names {
		if v, ok := f.values[name]; ok {
			out.Parameters = append(out.Parameters, ssmtypes.Parameter{Name: aws.String(name), Value: aws.String(v)})
		} else {
			out.InvalidParameters = append(out.InvalidParameters, name)
		}
	}
	return out, nil
}

func TestSSMProviderBatchesByTen(t *testing.T) {
	values := make(map[string]string)
	var keys []string
	for i := 0; i < 23; i++ {
		k := fmt.Sprintf("/dev/windalert/param-%02d", i)
		keys = append(keys, k)
		values[k] = fmt.Sprintf("v%d", i)
	}
	client := &fakeSSM{values: values}
	provider := newSSMProviderWithClient("us-west-2", client)

	got, err := provider.GetParametersBatch(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if len(got) != 23 {
		t.Errorf("got %d values, want 23", len(got))
	}
	if fmt.Sprint(client.batches) != "[10 10 3]" {
		t.Errorf("batches = %v, want [10 10 3]", client.batches)
	}
}

func TestSSMProviderInvalidParameter(t *testing.T) {
	provider := newSSMProviderWithClient("us-west-2", &fakeSSM{values: map[string]string{}})

	_, err := provider.GetParametersBatch(context.Background(), []string{"/dev/windalert/missing"})
	if err == nil {
		t.Fatal("expected error for invalid parameter")
	}
}

func TestSSMProviderClientError(t *testing.T) {
	provider := newSSMProviderWithClient("us-west-2", &fakeSSM{err: errors.New("access denied")})

	_, err := provider.GetParametersBatch(context.Background(), []string{"/dev/windalert/x"})
	if err == nil {
		t.Fatal("expected error from client")
	}
}

func TestSSMProviderEmptyKeys(t *testing.T) {
	client := &fakeSSM{}
	provider := newSSMProviderWithClient("us-west-2", client)

	got, err := provider.GetParametersBatch(context.Background(), nil)
	if err != nil || len(got) != 0 {
		t.Errorf("GetParametersBatch(nil) = %v, %v", got, err)
	}
	if len(client.batches) != 0 {
		t.Error("no SSM call expected for empty keys")
	}
}

func TestSSMProviderContextCancelled(t *testing.T) {
	provider := newSSMProviderWithClient("us-west-2", &fakeSSM{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.GetParametersBatch(ctx, []string{"/dev/windalert/x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnvVarProvider(t *testing.T) {
	t.Setenv("WINDALERT_TEST_SECRET", "s3cret")
	t.Setenv("WINDALERT_TEST_EMPTY", "")

	var provider SecretProvider = NewEnvVarProvider()
	got, err := provider.GetParametersBatch(context.Background(), []string{
		"WINDALERT_TEST_SECRET", "WINDALERT_TEST_EMPTY", "WINDALERT_TEST_UNSET",
	})
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if got["WINDALERT_TEST_SECRET"] != "s3cret" {
		t.Errorf("secret = %q", got["WINDALERT_TEST_SECRET"])
	}
	if v, ok := got["WINDALERT_TEST_EMPTY"]; !ok || v != "" {
		t.Errorf("empty variable should be present with empty value")
	}
	if _, ok := got["WINDALERT_TEST_UNSET"]; ok {
		t.Error("unset variable should be omitted")
	}
}
