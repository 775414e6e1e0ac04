// Copyright 2025 The DBQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params, optFns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestNewS3Sink(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3Sink(context.Background(), S3Config{Region: "eu-west-1"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing region", func(t *testing.T) {
		_, err := NewS3Sink(context.Background(), S3Config{Bucket: "dq"})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("static credentials and custom endpoint", func(t *testing.T) {
		sink, err := NewS3Sink(context.Background(), S3Config{
			Bucket:         "dq",
			Region:         "us-east-1",
			AccessKeyID:    "key",
			SecretKey:      "secret",
			Endpoint:       "http://localhost:9000",
			ForcePathStyle: true,
		})
		require.NoError(t, err)
		assert.NotNil(t, sink)
	})
}

func TestS3Sink_Write(t *testing.T) {
	mockClient := new(MockS3Client)
	mockClient.On("PutObject",
		mock.Anything,
		mock.MatchedBy(func(params *s3.PutObjectInput) bool {
			return params.Bucket != nil && *params.Bucket == "dq" &&
				params.Key != nil && *params.Key == "runs/42/violations/pk_unique/part-00000.csv" &&
				params.ContentType != nil && *params.ContentType == "text/csv" &&
				params.Body != nil
		}),
		mock.Anything,
	).Return(&s3.PutObjectOutput{}, nil)

	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket: "dq",
		Region: "us-east-1",
		Prefix: "/runs/42/",
	}, WithS3Client(mockClient))
	require.NoError(t, err)

	location, err := sink.Write(context.Background(), Key("pk_unique"), []byte("a\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3://dq/runs/42/violations/pk_unique/part-00000.csv", location)
	mockClient.AssertExpectations(t)
}

func TestS3Sink_WriteError(t *testing.T) {
	mockClient := new(MockS3Client)
	mockClient.On("PutObject", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})

	sink, err := NewS3Sink(context.Background(), S3Config{Bucket: "dq", Region: "us-east-1"}, WithS3Client(mockClient))
	require.NoError(t, err)

	_, err = sink.Write(context.Background(), Key("pk_unique"), nil)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = sink.Write(context.Background(), "..", nil)
	assert.ErrorIs(t, err, ErrInvalidPath)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestClassifyS3Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ErrOperationTimeout},
		{name: "canceled", err: fmt.Errorf("wrapped: %w", context.Canceled), want: ErrOperationCanceled},
		{name: "no such bucket", err: &types.NoSuchBucket{}, want: ErrBucketNotFound},
		{name: "slow down", err: &smithy.GenericAPIError{Code: "SlowDown"}, want: ErrServiceUnavailable},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyS3Error(tt.err, "upload"), tt.want)
		})
	}

	plain := errors.New("connection reset")
	err := classifyS3Error(plain, "upload")
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, "upload failed: connection reset", err.Error())

	err = classifyS3Error(&smithy.GenericAPIError{Code: "InternalError"}, "upload")
	assert.Contains(t, err.Error(), "code: InternalError")
}
