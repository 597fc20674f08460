package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoDataTransfered = errors.New("no data transfered")
)

// S3 archives synthesized audio in an S3 compatible bucket.
type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	PublicUrl string `yaml:"public_url"`
	Prefix    string `yaml:"prefix"`
}

func NewS3FromEnv() (*S3, error) {
	endpoint, exists := os.LookupEnv("S3_HOSTNAME")
	if !exists {
		return nil, fmt.Errorf("missing env var S3_HOSTNAME")
	}
	publicurl, exists := os.LookupEnv("S3_PUBLICURL")
	if !exists {
		return nil, fmt.Errorf("missing env var S3_PUBLICURL")
	}
	region, exists := os.LookupEnv("S3_REGION")
	if !exists {
		region = "auto"
	}
	access, exists := os.LookupEnv("S3_ACCESS")
	if !exists {
		return nil, fmt.Errorf("missing env var S3_ACCESS")
	}
	secret, exists := os.LookupEnv("S3_SECRET")
	if !exists {
		return nil, fmt.Errorf("missing env var S3_SECRET")
	}
	bucket, exists := os.LookupEnv("S3_BUCKET")
	if !exists {
		return nil, fmt.Errorf("missing env var S3_BUCKET")
	}
	prefix := os.Getenv("S3_PREFIX")

	s := &S3{
		Endpoint:  endpoint,
		Region:    region,
		AccessKey: access,
		SecretKey: secret,
		Bucket:    bucket,
		PublicUrl: publicurl,
		Prefix:    prefix,
	}
	s.logConfig()
	return s, nil
}

// Configured reports whether enough settings are present to upload.
func (s *S3) Configured() bool {
	return s != nil && s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

func (s *S3) logConfig() {
	logrus.WithFields(logrus.Fields{
		"endpoint": s.Endpoint,
		"region":   s.Region,
		"access":   prefix4(s.AccessKey),
		"secret":   prefix4(s.SecretKey),
		"public":   s.PublicUrl,
		"bucket":   s.Bucket,
	}).Infoln("s3 configuration")
}

func prefix4(v string) string {
	if len(v) < 4 {
		return v
	}
	return v[:4]
}

func (s *S3) session() (*session.Session, error) {
	region := s.Region
	if region == "" {
		region = "auto"
	}
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(s.Endpoint),
		Credentials:      credentials.NewStaticCredentials(s.AccessKey, s.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to s3; %w", err)
	}
	return sess, nil
}

// KeyFor maps a local audio file to its object key.
func (s *S3) KeyFor(filename string) string {
	return path.Join(s.Prefix, filepath.Base(filename))
}

// URL is the public address of an uploaded key.
func (s *S3) URL(key string) string {
	if s.PublicUrl == "" {
		return key
	}
	return strings.TrimSuffix(s.PublicUrl, "/") + "/" + key
}

// UploadFile uploads a synthesized audio file and returns its public URL.
func (s *S3) UploadFile(filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file; %w", err)
	}
	defer f.Close()

	key := s.KeyFor(filename)
	if err := s.StreamUpload(f, key); err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"file": filename,
		"key":  key,
	}).Infoln("uploaded audio")

	return s.URL(key), nil
}

// StreamUpload streams data to S3 in chunks.
// This reduces memory and disk usage.
func (s *S3) StreamUpload(stream io.Reader, key string) error {
	sess, err := s.session()
	if err != nil {
		return err
	}

	uploader := s3manager.NewUploader(sess)
	_, err = uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
		Body:   stream,
	}, func(u *s3manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024 // 10MB part size
		u.LeavePartsOnError = false   // on fail delete garbage
	})
	if err != nil {
		return fmt.Errorf("failed putobject; %w", err)
	}

	exists, err := s.KeyExists(key)
	if err != nil {
		return fmt.Errorf("failed to check put succeeded; %w", err)
	}

	if !exists {
		return ErrNoDataTransfered
	}

	return nil
}

func (s *S3) KeyExists(key string) (bool, error) {
	sess, err := s.session()
	if err != nil {
		return false, err
	}

	s3Svc := s3.New(sess)

	out, err := s3Svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound": // HeadObject has no body, so 404s come back as "NotFound"
				return false, nil
			default:
				return false, fmt.Errorf("failed to headobject; %w", err)
			}
		}
		return false, fmt.Errorf("failed to headobject not a awserr; %w", err)
	}
	// don't count a key as 'existing' if its 0 bytes
	if out.ContentLength != nil && *out.ContentLength == 0 {
		return false, nil
	}

	return true, nil
}
