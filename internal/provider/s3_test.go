package provider

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

func Test_TranslateS3Error_NoSuchBucket(t *testing.T) {
	err := translateS3Error("b", &types.NoSuchBucket{})

	var gerr *gdbterrors.Error
	assert.True(t, gdbterrors.As(err, &gerr))
	assert.Equal(t, gdbterrors.CodeS3BucketNotFound, gerr.Code)
}

func Test_TranslateS3Error_NoSuchKey(t *testing.T) {
	err := translateS3Error("b", &types.NoSuchKey{})

	var gerr *gdbterrors.Error
	assert.True(t, gdbterrors.As(err, &gerr))
	assert.Equal(t, gdbterrors.CodeS3ObjectNotFound, gerr.Code)
}

func Test_TranslateS3Error_AccessDenied(t *testing.T) {
	err := translateS3Error("b", &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"})

	var gerr *gdbterrors.Error
	assert.True(t, gdbterrors.As(err, &gerr))
	assert.Equal(t, gdbterrors.CodeS3AccessDenied, gerr.Code)
}

func Test_TranslateS3Error_OtherErrorFallsBackToGenericS3(t *testing.T) {
	err := translateS3Error("b", assert.AnError)

	var gerr *gdbterrors.Error
	assert.True(t, gdbterrors.As(err, &gerr))
	assert.Equal(t, gdbterrors.CodeS3, gerr.Code)
}
