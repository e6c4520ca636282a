package vaults

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/vault"
)

// versionMetaKey is the object metadata entry carrying the vault version.
const versionMetaKey = "vault-version"

// ObjectAPI is the part of *s3.Client used by S3Repository.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Repository stores each vault as the JSON object vaults/<owner>.json.
// Writes are conditional on the ETag seen when the version was checked, so a
// concurrent writer turns into a version conflict rather than a lost update.
type S3Repository struct {
	api    ObjectAPI
	bucket string
}

func NewS3Repository(api ObjectAPI, bucket string) *S3Repository {
	return &S3Repository{api: api, bucket: bucket}
}

// S3Options locate an S3-compatible endpoint such as MinIO.
type S3Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// NewS3Client builds a path-style client with static credentials. An empty
// BaseEndpoint uses the AWS default for the region.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(o.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(opts *s3.Options) {
		if o.BaseEndpoint != "" {
			opts.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		opts.UsePathStyle = true
	}), nil
}

func (r *S3Repository) key(ownerID string) string {
	return "vaults/" + ownerID + ".json"
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}

func (r *S3Repository) Load(ctx context.Context, ownerID string) (*vault.Vault, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(ownerID)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 get: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read: %w", err)
	}
	return decode(data)
}

// stored returns the version and ETag of the current object. A missing
// object has version 0 and no ETag.
func (r *S3Repository) stored(ctx context.Context, ownerID string) (int64, string, error) {
	out, err := r.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(ownerID)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, "", nil
		}
		return 0, "", fmt.Errorf("s3 head: %w", err)
	}

	version, err := strconv.ParseInt(out.Metadata[versionMetaKey], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3 head: bad %s metadata: %w", versionMetaKey, err)
	}
	return version, aws.ToString(out.ETag), nil
}

func (r *S3Repository) Save(ctx context.Context, v *vault.Vault) error {
	current, etag, err := r.stored(ctx, v.OwnerID)
	if err != nil {
		return err
	}
	if current != v.Version {
		return fmt.Errorf("%w: vault of %s is at version %d, not %d", common.ErrVersionConflict, v.OwnerID, current, v.Version)
	}

	next := v.Version + 1
	doc, err := encodeAt(v, next)
	if err != nil {
		return err
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(v.OwnerID)),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{versionMetaKey: strconv.FormatInt(next, 10)},
	}
	if etag == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(etag)
	}

	if _, err := r.api.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: vault of %s changed concurrently", common.ErrVersionConflict, v.OwnerID)
		}
		return fmt.Errorf("s3 put: %w", err)
	}

	v.Version = next
	return nil
}
