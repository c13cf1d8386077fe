package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	gdbterrors "github.com/argannor/gdbt/internal/errors"
)

// S3Provider stores named state groups as objects under a bucket
// prefix, grounded on the original's S3Provider(boto3).
type S3Provider struct {
	name            string
	Bucket          string
	Path            string
	AccessKeyID     string
	SecretAccessKey string
}

func newS3Provider(name string, table map[string]any) (*S3Provider, error) {
	bucket := stringField(table, "bucket")
	if bucket == "" {
		return nil, gdbterrors.New(gdbterrors.CodeConfigFormatInvalid, name+": s3 provider requires bucket")
	}
	return &S3Provider{
		name:            name,
		Bucket:          bucket,
		Path:            strings.Trim(stringField(table, "path"), "/"),
		AccessKeyID:     stringField(table, "access_key_id"),
		SecretAccessKey: stringField(table, "secret_access_key"),
	}, nil
}

func (p *S3Provider) Name() string { return p.name }
func (p *S3Provider) Kind() string { return "s3" }

func (p *S3Provider) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if p.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(p.AccessKeyID, p.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeS3, err, p.Bucket)
	}
	return s3.NewFromConfig(cfg), nil
}

func (p *S3Provider) key(name string) string {
	if p.Path == "" {
		return name + stateFileExt
	}
	return p.Path + "/" + name + stateFileExt
}

func (p *S3Provider) List(ctx context.Context, subdir string) ([]string, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	prefix := p.key(subdir)
	prefix = strings.TrimSuffix(prefix, stateFileExt)
	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.Bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, translateS3Error(p.Bucket, err)
	}
	var names []string
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if !strings.HasSuffix(key, stateFileExt) {
			continue
		}
		trimmed := strings.TrimSuffix(key, stateFileExt)
		if p.Path != "" {
			trimmed = strings.TrimPrefix(trimmed, p.Path+"/")
		}
		names = append(names, trimmed)
	}
	return names, nil
}

func (p *S3Provider) Get(ctx context.Context, name string) ([]byte, error) {
	client, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(p.key(name)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, translateS3Error(p.Bucket, err)
	}
	defer out.Body.Close()
	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, gdbterrors.Wrap(gdbterrors.CodeS3, err, p.Bucket)
	}
	return content, nil
}

func (p *S3Provider) Put(ctx context.Context, name string, content []byte) error {
	client, err := p.client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(p.key(name)),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return translateS3Error(p.Bucket, err)
	}
	return nil
}

func (p *S3Provider) Remove(ctx context.Context, name string) error {
	client, err := p.client(ctx)
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.Bucket),
		Key:    aws.String(p.key(name)),
	})
	if err != nil {
		return translateS3Error(p.Bucket, err)
	}
	return nil
}

func (p *S3Provider) Lock(ctx context.Context, name string) error   { return nil }
func (p *S3Provider) Unlock(ctx context.Context, name string) error { return nil }

// translateS3Error maps the SDK's typed errors onto the original's
// NoSuchBucket/NoSuchKey/AccessDenied split.
func translateS3Error(bucket string, err error) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return gdbterrors.New(gdbterrors.CodeS3BucketNotFound, bucket)
	}
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return gdbterrors.New(gdbterrors.CodeS3ObjectNotFound, bucket)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied" {
		return gdbterrors.New(gdbterrors.CodeS3AccessDenied, bucket)
	}
	return gdbterrors.Wrap(gdbterrors.CodeS3, err, bucket)
}
