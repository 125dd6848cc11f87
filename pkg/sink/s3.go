// Package sink delivers a successfully merged output file to optional
// downstream destinations.
package sink

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/recommend-games/board-game-merger/pkg/config"
)

// S3Uploader pushes merged output files to an S3 bucket.
type S3Uploader struct {
	cfg config.S3Config
}

func NewS3Uploader(cfg config.S3Config) *S3Uploader {
	return &S3Uploader{cfg: cfg}
}

// Upload stores the file under <prefix><basename> in the configured bucket.
func (u *S3Uploader) Upload(ctx context.Context, path string) error {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(u.cfg.Region),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.cfg.AccessKey, u.cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if u.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	key := u.cfg.Prefix + filepath.Base(path)
	res, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	log.Printf("[Sink] Uploaded to %s", res.Location)
	return nil
}
