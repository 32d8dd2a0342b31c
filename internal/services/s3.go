package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/config"
	"kb-admin-client/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used to read a bucket.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type ObjectInfo struct {
	Key  string
	Size int64
}

// S3Source reads objects from one bucket.
type S3Source struct {
	client S3API
	bucket string
}

// NewS3Source creates a source for bucket, or for the configured bucket when
// bucket is empty.
func NewS3Source(ctx context.Context, cfg *config.S3Config, bucket string) (*S3Source, error) {
	if bucket == "" {
		bucket = cfg.Bucket
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: no S3 bucket configured", client.ErrInvalidArgument)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3SourceWithClient(s3Client, bucket), nil
}

func NewS3SourceWithClient(api S3API, bucket string) *S3Source {
	return &S3Source{client: api, bucket: bucket}
}

func (s *S3Source) Bucket() string {
	return s.bucket
}

// List returns the objects under prefix in key order, skipping folder
// placeholders.
func (s *S3Source) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var objects []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, ObjectInfo{Key: key, Size: aws.ToInt64(obj.Size)})
		}
	}
	return objects, nil
}

func (s *S3Source) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

// ImportRequest describes a file datasource built from the objects under a
// prefix.
type ImportRequest struct {
	Prefix       string
	Name         string
	Description  string
	BuildKGIndex bool
	LLMID        *int
	// BatchSize bounds how many objects are open in one upload request.
	BatchSize int
}

type ImportResult struct {
	Datasource models.Datasource
	Uploads    []models.Upload
}

// Importer copies objects into the backend and registers them as a file
// datasource.
type Importer struct {
	source      ObjectSource
	uploads     UploadsClientInterface
	datasources DatasourcesClientInterface
	logger      zerolog.Logger
}

func NewImporter(source ObjectSource, uploads UploadsClientInterface, datasources DatasourcesClientInterface, logger zerolog.Logger) *Importer {
	return &Importer{
		source:      source,
		uploads:     uploads,
		datasources: datasources,
		logger:      logger,
	}
}

// Import uploads every object under req.Prefix and creates a file datasource
// listing them in object order. Upload records are matched to objects by
// file name, see uploadNames.
func (im *Importer) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	if req.Name == "" {
		return ImportResult{}, fmt.Errorf("%w: datasource name is required", client.ErrInvalidArgument)
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}

	objects, err := im.source.List(ctx, req.Prefix)
	if err != nil {
		return ImportResult{}, err
	}
	if len(objects) == 0 {
		return ImportResult{}, fmt.Errorf("%w: no objects under prefix %q", client.ErrInvalidArgument, req.Prefix)
	}

	names := uploadNames(req.Prefix, objects)

	var uploaded []models.Upload
	for start := 0; start < len(objects); start += batchSize {
		end := min(start+batchSize, len(objects))
		batch, err := im.uploadBatch(ctx, objects[start:end], names[start:end])
		if err != nil {
			return ImportResult{}, err
		}
		uploaded = append(uploaded, batch...)
		im.logger.Info().
			Int("uploaded", len(uploaded)).
			Int("total", len(objects)).
			Msg("Imported object batch")
	}

	refs, err := FileRefs(names, uploaded)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to correlate uploads: %w", err)
	}

	ds, err := im.datasources.Create(ctx, models.CreateDatasourceParams{
		Name:         req.Name,
		Description:  req.Description,
		BuildKGIndex: req.BuildKGIndex,
		LLMID:        req.LLMID,
		Config:       models.FileConfig{Files: refs},
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to create datasource: %w", err)
	}

	ordered := make([]models.Upload, len(refs))
	byName, _ := UploadsByName(uploaded)
	for i, name := range names {
		ordered[i] = byName[name]
	}
	return ImportResult{Datasource: ds, Uploads: ordered}, nil
}

func (im *Importer) uploadBatch(ctx context.Context, objects []ObjectInfo, names []string) ([]models.Upload, error) {
	files := make([]models.FileHandle, 0, len(objects))
	bodies := make([]io.Closer, 0, len(objects))
	defer func() {
		for _, b := range bodies {
			b.Close()
		}
	}()

	for i, obj := range objects {
		body, err := im.source.Open(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
		files = append(files, models.FileHandle{
			Name:        names[i],
			ContentType: mime.TypeByExtension(path.Ext(obj.Key)),
			Body:        body,
		})
	}

	uploads, err := im.uploads.UploadFiles(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("failed to upload objects: %w", err)
	}
	return uploads, nil
}

// uploadNames derives one file name per object from its key relative to
// prefix. Separators are flattened because multipart servers keep only the
// base name of a file, and repeats get a numeric suffix, so every name comes
// back from the backend unchanged and unique.
func uploadNames(prefix string, objects []ObjectInfo) []string {
	names := make([]string, len(objects))
	used := make(map[string]bool, len(objects))
	for i, obj := range objects {
		name := strings.TrimPrefix(strings.TrimPrefix(obj.Key, prefix), "/")
		if name == "" {
			name = path.Base(obj.Key)
		}
		name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)

		unique := name
		ext := path.Ext(name)
		for n := 2; used[unique]; n++ {
			unique = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		used[unique] = true
		names[i] = unique
	}
	return names
}
