package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/termdesk/termdesk/config"
	"github.com/termdesk/termdesk/model"
)

// RoundArchiver keeps an audit copy of every persisted round in object
// storage. It is not the system of record: archive failures are logged by
// the caller and never fail a round.
type RoundArchiver struct {
	client *minio.Client
	bucket string
	config *config.ArchiveConfig
}

func NewRoundArchiver(cfg *config.ArchiveConfig) (*RoundArchiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &RoundArchiver{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *RoundArchiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ArchiveRound serializes the round and uploads it under the session's
// prefix.
func (a *RoundArchiver) ArchiveRound(ctx context.Context, tenant, sessionID string, round *model.NegotiationRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}

	objectName := ObjectName(tenant, sessionID, round.RoundNo)
	_, err = a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload round archive: %w", err)
	}

	return nil
}

// ObjectName is the archive key for one round.
func ObjectName(tenant, sessionID string, roundNo int) string {
	return fmt.Sprintf("%s/%s/round_%04d.json", tenant, sessionID, roundNo)
}
