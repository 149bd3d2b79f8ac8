package export

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dd0wney/opinion-diffusion/pkg/diffusion"
	"github.com/dd0wney/opinion-diffusion/pkg/logging"
	"github.com/dd0wney/opinion-diffusion/pkg/metrics"
)

// Sink stores encoded results under a name
type Sink interface {
	Put(ctx context.Context, name string, data []byte, format Format) error
	// Kind labels the sink in metrics and logs
	Kind() string
	// Location describes where name ends up
	Location(name string) string
}

// FileSink writes results into a local directory
type FileSink struct {
	Dir string
}

func (s *FileSink) Kind() string { return "file" }

func (s *FileSink) Location(name string) string {
	return filepath.Join(s.Dir, name)
}

// Put writes data atomically via a temporary file in the same directory
func (s *FileSink) Put(ctx context.Context, name string, data []byte, _ Format) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	return os.Rename(tmp.Name(), s.Location(name))
}

// ObjectPutter is the subset of the S3 client used for uploads.
// *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads results to a bucket under Prefix
type S3Sink struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

func (s *S3Sink) Kind() string { return "s3" }

func (s *S3Sink) key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

func (s *S3Sink) Location(name string) string {
	return "s3://" + s.Bucket + "/" + s.key(name)
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte, format Format) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(format.ContentType()),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", s.Location(name), err)
	}
	return nil
}

// S3Options configures the S3 client. Empty fields fall back to the
// default AWS credential and region chain.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Sink builds an S3 sink with a client from the AWS default config chain
func NewS3Sink(ctx context.Context, bucket, prefix string, opts S3Options) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: empty bucket", ErrInvalidDestination)
	}

	var loaders []func(*config.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Sink{Client: client, Bucket: bucket, Prefix: prefix}, nil
}

// Destination is a parsed export target
type Destination struct {
	Scheme string
	// Path is the directory for file destinations
	Path   string
	Bucket string
	Prefix string
}

// ParseDestination accepts "s3://bucket/prefix", "file:///dir" or a plain directory path
func ParseDestination(raw string) (Destination, error) {
	if raw == "" {
		return Destination{}, fmt.Errorf("%w: empty destination", ErrInvalidDestination)
	}
	if !strings.Contains(raw, "://") {
		return Destination{Scheme: "file", Path: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Destination{}, fmt.Errorf("%w: %v", ErrInvalidDestination, err)
	}

	switch u.Scheme {
	case "file":
		if u.Path == "" {
			return Destination{}, fmt.Errorf("%w: missing path in %q", ErrInvalidDestination, raw)
		}
		return Destination{Scheme: "file", Path: u.Path}, nil
	case "s3":
		if u.Host == "" {
			return Destination{}, fmt.Errorf("%w: missing bucket in %q", ErrInvalidDestination, raw)
		}
		return Destination{Scheme: "s3", Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	default:
		return Destination{}, fmt.Errorf("%w: unknown scheme %q", ErrInvalidDestination, u.Scheme)
	}
}

// NewSink opens the sink for a destination
func NewSink(ctx context.Context, dest Destination, opts S3Options) (Sink, error) {
	switch dest.Scheme {
	case "file":
		return &FileSink{Dir: dest.Path}, nil
	case "s3":
		return NewS3Sink(ctx, dest.Bucket, dest.Prefix, opts)
	default:
		return nil, fmt.Errorf("%w: unknown scheme %q", ErrInvalidDestination, dest.Scheme)
	}
}

// Exporter writes results to a sink, recording outcomes
type Exporter struct {
	sink    Sink
	format  Format
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewExporter creates an exporter. logger and reg may be nil.
func NewExporter(sink Sink, format Format, logger logging.Logger, reg *metrics.Registry) *Exporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Exporter{
		sink:    sink,
		format:  format,
		logger:  logger.With(logging.Component("export"), logging.String("sink", sink.Kind())),
		metrics: reg,
	}
}

// Write encodes result and stores it as <run-id>.<ext>. It returns the location written.
func (e *Exporter) Write(ctx context.Context, result *diffusion.Result) (string, error) {
	location, err := e.write(ctx, result)
	if e.metrics != nil {
		e.metrics.RecordExport(e.sink.Kind(), err)
	}
	if err != nil {
		e.logger.Error("export failed", logging.Error(err))
		return "", err
	}
	e.logger.Info("result exported", logging.String("location", location))
	return location, nil
}

func (e *Exporter) write(ctx context.Context, result *diffusion.Result) (string, error) {
	data, err := Encode(result, e.format)
	if err != nil {
		return "", err
	}

	name := result.RunID + "." + e.format.Extension()
	if err := e.sink.Put(ctx, name, data, e.format); err != nil {
		return "", err
	}
	return e.sink.Location(name), nil
}

// Write encodes result and stores it in sink without logging or metrics
func Write(ctx context.Context, sink Sink, result *diffusion.Result, format Format) (string, error) {
	return NewExporter(sink, format, nil, nil).Write(ctx, result)
}
