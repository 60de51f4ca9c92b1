package s3

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsconfig "github.com/scttfrdmn/cargoship/pkg/aws/config"
	cargoships3 "github.com/scttfrdmn/cargoship/pkg/aws/s3"
)

// Uploader writes large values through an accelerated transfer path.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, meta map[string]string) error
}

// cargoUploader sends values through a CargoShip transporter, which splits
// them into concurrent multipart chunks.
type cargoUploader struct {
	transporter  *cargoships3.Transporter
	storageClass awsconfig.StorageClass
	logger       *slog.Logger
}

func newCargoUploader(client *s3.Client, opts Options, logger *slog.Logger) *cargoUploader {
	class, _ := cargoStorageClass(opts.StorageClass)
	cargoConfig := awsconfig.S3Config{
		Bucket:             opts.Bucket,
		StorageClass:       class,
		MultipartThreshold: opts.Transfer.Threshold,
		MultipartChunkSize: opts.Transfer.ChunkSize,
		Concurrency:        opts.Transfer.Concurrency,
	}

	logger.Info("CargoShip accelerated uploads enabled",
		"threshold", opts.Transfer.Threshold,
		"chunk_size", opts.Transfer.ChunkSize,
		"concurrency", opts.Transfer.Concurrency)

	return &cargoUploader{
		transporter:  cargoships3.NewTransporter(client, cargoConfig),
		storageClass: class,
		logger:       logger,
	}
}

func (u *cargoUploader) Upload(ctx context.Context, key string, body []byte, meta map[string]string) error {
	result, err := u.transporter.Upload(ctx, cargoships3.Archive{
		Key:          key,
		Reader:       bytes.NewReader(body),
		Size:         int64(len(body)),
		StorageClass: u.storageClass,
		Metadata:     meta,
	})
	if err != nil {
		return err
	}

	u.logger.Debug("CargoShip upload completed",
		"key", key,
		"size", len(body),
		"throughput", result.Throughput,
		"duration", result.Duration)
	return nil
}
