package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"geotime/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrNotFound = errors.New("observation not found")

// KeyFunc maps an observation to its object key.
type KeyFunc func(models.Observation) string

// S3Service is a client for S3-compatible storage.
type S3Service struct {
	client *minio.Client
	key    KeyFunc
	stored atomic.Int64
}

// NewS3Service initializes and returns a new S3 storage service.
// It connects to the MinIO server using credentials from environment variables.
func NewS3Service(key KeyFunc) (*S3Service, error) {
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	if minioEndpoint == "" || minioAccessKey == "" || minioSecretKey == "" {
		return nil, fmt.Errorf("missing one or more required environment variables: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}

	minioClient, err := minio.New(minioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioAccessKey, minioSecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	log.Println("Successfully connected to MinIO endpoint:", minioEndpoint)
	return &S3Service{client: minioClient, key: key}, nil
}

func (s *S3Service) CreateBucket(ctx context.Context, bucketName string, location string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		err = s.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Stored returns how many objects this service has written.
func (s *S3Service) Stored() int64 { return s.stored.Load() }

// StoreObservation writes obs as JSON. An existing object is left untouched.
func (s *S3Service) StoreObservation(ctx context.Context, bucketName string, obs models.Observation) error {
	objectKey := s.key(obs)

	_, err := s.client.StatObject(ctx, bucketName, objectKey, minio.StatObjectOptions{})
	if err == nil {
		log.Printf("Observation '%s' already exists in bucket '%s'. Ignoring write operation.", obs.ID, bucketName)
		return nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing object: %w", err)
	}

	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("failed to marshal observation to JSON: %w", err)
	}

	_, err = s.client.PutObject(
		ctx,
		bucketName,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}

	s.stored.Add(1)
	log.Printf("Stored observation '%s' in bucket '%s' with key '%s'", obs.ID, bucketName, objectKey)
	return nil
}

// GetObservation reads back the object stored for obs. Only the fields used
// by the key function need to be set.
func (s *S3Service) GetObservation(ctx context.Context, bucketName string, obs models.Observation) (*models.Observation, error) {
	objectKey := s.key(obs)
	object, err := s.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer object.Close()

	var out models.Observation
	if err := json.NewDecoder(object).Decode(&out); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to decode JSON from stream: %w", err)
	}
	return &out, nil
}

// Bucket binds the service to a bucket so it can be used as a pipeline sink.
func (s *S3Service) Bucket(bucketName string) *BucketStore {
	return &BucketStore{s3: s, bucket: bucketName}
}

// BucketStore stores observations in one bucket.
type BucketStore struct {
	s3     *S3Service
	bucket string
}

func (b *BucketStore) SaveObservation(ctx context.Context, obs models.Observation) error {
	return b.s3.StoreObservation(ctx, b.bucket, obs)
}
