// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/utils"
)

const (
	FolderProducts = "products"
	FolderAvatars  = "avatars"
)

// ImageStore holds image bytes on behalf of products and users. Callers
// keep only the returned reference.
type ImageStore interface {
	// Upload stores a base64 data URI. An http(s) URL is kept as an
	// external reference without a key.
	Upload(ctx context.Context, source, folder string) (models.Image, error)
	UploadFile(ctx context.Context, r io.Reader, filename, folder string) (models.Image, error)
	Destroy(ctx context.Context, publicID string) error
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var imageStoreBreakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "image_store_circuit_breaker_state",
		Help: "Current state of the image store circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func NewImageStore(cfg *config.Config) (ImageStore, error) {
	if cfg.AWS.AccessKeyID == "" {
		logrus.WithField("dir", cfg.Uploads.Dir).Warn("AWS credentials not set, storing images on local disk")
		return NewLocalImageStore(cfg.Uploads.Dir, cfg.Uploads.BaseURL, cfg.Uploads.MaxImageBytes)
	}
	return NewS3ImageStore(cfg.AWS, cfg.Uploads.MaxImageBytes)
}

// decodeImage reads an upload and checks that it is an image of a
// supported type within the size limit.
func decodeImage(r io.Reader, maxBytes int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", utils.Validation(i18n.KeyImageInvalid)
	}
	if len(data) == 0 || int64(len(data)) > maxBytes {
		return nil, "", utils.Validation(i18n.KeyImageInvalid)
	}

	contentType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, "", utils.Validation(i18n.KeyImageInvalid)
	}
	return data, contentType, nil
}

// parseDataURI splits "data:image/png;base64,...." into its payload.
func parseDataURI(source string) (io.Reader, error) {
	header, payload, ok := strings.Cut(source, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, utils.Validation(i18n.KeyImageInvalid)
	}
	return base64.NewDecoder(base64.StdEncoding, strings.NewReader(payload)), nil
}

func isRemoteURL(source string) bool {
	return strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://")
}

func generateImageKey(folder, contentType string) string {
	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], allowedImageTypes[contentType])
	if folder != "" {
		return folder + "/" + filename
	}
	return filename
}

// S3ImageStore keeps images in a bucket. Calls go through a circuit
// breaker so a failing bucket is not hammered on every request.
type S3ImageStore struct {
	client   s3iface.S3API
	bucket   string
	baseURL  string
	maxBytes int64
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

func NewS3ImageStore(cfg config.AWSConfig, maxBytes int64) (*S3ImageStore, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return newS3ImageStore(s3.New(sess), cfg.S3Bucket, s3BaseURL(cfg), maxBytes), nil
}

func newS3ImageStore(client s3iface.S3API, bucket, baseURL string, maxBytes int64) *S3ImageStore {
	const name = "s3-images"
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state change")
			imageStoreBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}
	imageStoreBreakerState.WithLabelValues(name).Set(0)

	return &S3ImageStore{
		client:   client,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		breaker:  gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func s3BaseURL(cfg config.AWSConfig) string {
	if cfg.CloudFrontURL != "" {
		return cfg.CloudFrontURL
	}
	if cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.S3Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
}

func (s *S3ImageStore) Upload(ctx context.Context, source, folder string) (models.Image, error) {
	if isRemoteURL(source) {
		return models.Image{URL: source}, nil
	}
	r, err := parseDataURI(source)
	if err != nil {
		return models.Image{}, err
	}
	return s.UploadFile(ctx, r, "", folder)
}

func (s *S3ImageStore) UploadFile(ctx context.Context, r io.Reader, filename, folder string) (models.Image, error) {
	data, contentType, err := decodeImage(r, s.maxBytes)
	if err != nil {
		return models.Image{}, err
	}

	key := generateImageKey(folder, contentType)
	_, err = s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(data))),
		})
		return struct{}{}, err
	})
	if err != nil {
		return models.Image{}, utils.Upstream(i18n.KeyImageUploadFailed, fmt.Errorf("put %s: %w", key, err))
	}

	logrus.WithFields(logrus.Fields{"key": key, "source": filename, "size": len(data)}).Debug("Image uploaded")
	return models.Image{PublicID: key, URL: s.baseURL + "/" + key}, nil
}

func (s *S3ImageStore) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.breaker.Execute(func() (struct{}, error) {
		_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(publicID),
		})
		return struct{}{}, err
	})
	if err != nil {
		return utils.Upstream(i18n.KeyImageDestroyFailed, fmt.Errorf("delete %s: %w", publicID, err))
	}
	return nil
}

func (s *S3ImageStore) State() gobreaker.State {
	return s.breaker.State()
}

// LocalImageStore writes images below a directory that the router serves
// statically. Meant for development.
type LocalImageStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalImageStore(dir, baseURL string, maxBytes int64) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalImageStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

func (s *LocalImageStore) Upload(ctx context.Context, source, folder string) (models.Image, error) {
	if isRemoteURL(source) {
		return models.Image{URL: source}, nil
	}
	r, err := parseDataURI(source)
	if err != nil {
		return models.Image{}, err
	}
	return s.UploadFile(ctx, r, "", folder)
}

func (s *LocalImageStore) UploadFile(ctx context.Context, r io.Reader, filename, folder string) (models.Image, error) {
	data, contentType, err := decodeImage(r, s.maxBytes)
	if err != nil {
		return models.Image{}, err
	}

	key := generateImageKey(folder, contentType)
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return models.Image{}, utils.Upstream(i18n.KeyImageUploadFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.Image{}, utils.Upstream(i18n.KeyImageUploadFailed, err)
	}

	return models.Image{PublicID: key, URL: s.baseURL + "/" + key}, nil
}

func (s *LocalImageStore) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	path := filepath.Join(s.dir, filepath.FromSlash(filepath.Clean("/"+publicID)))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return utils.Upstream(i18n.KeyImageDestroyFailed, err)
	}
	return nil
}

// destroyImages releases every keyed image, stopping at the first failure.
func destroyImages(ctx context.Context, store ImageStore, images []models.Image) error {
	for _, img := range images {
		if err := store.Destroy(ctx, img.PublicID); err != nil {
			return err
		}
	}
	return nil
}

func uploadImages(ctx context.Context, store ImageStore, sources []string, folder string) ([]models.Image, error) {
	images := make([]models.Image, 0, len(sources))
	for _, src := range sources {
		img, err := store.Upload(ctx, src, folder)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
