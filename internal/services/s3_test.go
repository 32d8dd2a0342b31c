package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"kb-admin-client/internal/client"
	"kb-admin-client/internal/models"
	"kb-admin-client/internal/services"
	"kb-admin-client/internal/services/mocks"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves a fixed listing split into two pages.
type fakeS3 struct {
	pages   [][]string
	objects map[string]string
	opened  []string
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	index := 0
	if params.ContinuationToken != nil {
		index = 1
	}
	out := &s3.ListObjectsV2Output{}
	for _, key := range f.pages[index] {
		if !strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key), Size: aws.Int64(int64(len(f.objects[key])))})
	}
	if index+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	f.opened = append(f.opened, key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{
		pages: [][]string{
			{"docs/", "docs/a.md", "docs/guide/b.pdf"},
			{"docs/c.txt"},
		},
		objects: map[string]string{"docs/a.md": "# A", "docs/guide/b.pdf": "%PDF", "docs/c.txt": "c"},
	}
	source := services.NewS3SourceWithClient(fake, "kb")

	t.Run("List_FollowsPagesSkipsFolders", func(t *testing.T) {
		objects, err := source.List(ctx, "docs/")

		require.NoError(t, err)
		assert.Equal(t, []services.ObjectInfo{
			{Key: "docs/a.md", Size: 3},
			{Key: "docs/guide/b.pdf", Size: 4},
			{Key: "docs/c.txt", Size: 1},
		}, objects)
		assert.Equal(t, "kb", source.Bucket())
	})

	t.Run("Open_Missing", func(t *testing.T) {
		_, err := source.Open(ctx, "docs/missing")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "s3://kb/docs/missing")
	})
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func TestImporter(t *testing.T) {
	ctx := context.Background()

	t.Run("Import_BatchesAndCorrelatesByName", func(t *testing.T) {
		source := mocks.NewMockObjectSource()
		uploads := mocks.NewMockUploadsClient()
		datasources := mocks.NewMockDatasourcesClient()

		source.On("List", ctx, "docs/").Return([]services.ObjectInfo{
			{Key: "docs/a.md"}, {Key: "docs/guide/b.pdf"}, {Key: "docs/c.txt"},
		}, nil)
		bodies := map[string]*trackedBody{}
		for _, key := range []string{"docs/a.md", "docs/guide/b.pdf", "docs/c.txt"} {
			body := &trackedBody{Reader: strings.NewReader(key)}
			bodies[key] = body
			source.On("Open", ctx, key).Return(body, nil)
		}

		// the backend answers each batch out of order
		uploads.On("UploadFiles", ctx, mock.MatchedBy(func(files []models.FileHandle) bool {
			return len(files) == 2 && files[0].Name == "a.md" && files[1].Name == "guide_b.pdf"
		})).Return([]models.Upload{{ID: 11, Name: "guide_b.pdf"}, {ID: 10, Name: "a.md"}}, nil)
		uploads.On("UploadFiles", ctx, mock.MatchedBy(func(files []models.FileHandle) bool {
			return len(files) == 1 && files[0].Name == "c.txt" && files[0].ContentType == "text/plain; charset=utf-8"
		})).Return([]models.Upload{{ID: 12, Name: "c.txt"}}, nil)

		expected := models.FileConfig{Files: []models.FileRef{
			{FileID: 10, FileName: "a.md"},
			{FileID: 11, FileName: "guide_b.pdf"},
			{FileID: 12, FileName: "c.txt"},
		}}
		datasources.On("Create", ctx, mock.MatchedBy(func(p models.CreateDatasourceParams) bool {
			return p.Name == "handbook" && assert.ObjectsAreEqual(expected, p.Config)
		})).Return(models.Datasource{ID: 5, Name: "handbook", Config: expected}, nil)

		importer := services.NewImporter(source, uploads, datasources, zerolog.Nop())
		result, err := importer.Import(ctx, services.ImportRequest{Prefix: "docs/", Name: "handbook", BatchSize: 2})

		require.NoError(t, err)
		assert.Equal(t, 5, result.Datasource.ID)
		require.Len(t, result.Uploads, 3)
		assert.Equal(t, 10, result.Uploads[0].ID)
		assert.Equal(t, 11, result.Uploads[1].ID)
		for key, body := range bodies {
			assert.True(t, body.closed, key)
		}
		uploads.AssertExpectations(t)
		datasources.AssertExpectations(t)
	})

	t.Run("Import_EmptyPrefix", func(t *testing.T) {
		source := mocks.NewMockObjectSource()
		source.On("List", ctx, "none/").Return([]services.ObjectInfo{}, nil)

		importer := services.NewImporter(source, mocks.NewMockUploadsClient(), mocks.NewMockDatasourcesClient(), zerolog.Nop())
		_, err := importer.Import(ctx, services.ImportRequest{Prefix: "none/", Name: "empty"})

		assert.ErrorIs(t, err, client.ErrInvalidArgument)
	})

	t.Run("Import_UploadFailureSkipsCreate", func(t *testing.T) {
		source := mocks.NewMockObjectSource()
		uploads := mocks.NewMockUploadsClient()
		datasources := mocks.NewMockDatasourcesClient()
		source.On("List", ctx, "").Return([]services.ObjectInfo{{Key: "a.md"}}, nil)
		source.On("Open", ctx, "a.md").Return(io.NopCloser(strings.NewReader("a")), nil)
		uploads.On("UploadFiles", ctx, mock.Anything).Return(nil, &client.HTTPError{StatusCode: 413, Message: "too large"})

		importer := services.NewImporter(source, uploads, datasources, zerolog.Nop())
		_, err := importer.Import(ctx, services.ImportRequest{Name: "x"})

		assert.Equal(t, 413, client.StatusCode(err))
		datasources.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Import_RequiresName", func(t *testing.T) {
		importer := services.NewImporter(mocks.NewMockObjectSource(), mocks.NewMockUploadsClient(), mocks.NewMockDatasourcesClient(), zerolog.Nop())

		_, err := importer.Import(ctx, services.ImportRequest{Prefix: "docs/"})

		assert.ErrorIs(t, err, client.ErrInvalidArgument)
	})

	t.Run("Import_NestedKeysSurviveMultipartNames", func(t *testing.T) {
		cases := []struct {
			name   string
			prefix string
			keys   []string
			files  []string
		}{
			{
				name:   "nested",
				prefix: "docs/",
				keys:   []string{"docs/guide/b.pdf", "docs/a.md"},
				files:  []string{"guide_b.pdf", "a.md"},
			},
			{
				name:   "colliding",
				prefix: "doc",
				keys:   []string{"doc/a", "doca"},
				files:  []string{"a", "a-2"},
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				fake := &fakeS3{pages: [][]string{tc.keys}, objects: map[string]string{}}
				for _, key := range tc.keys {
					fake.objects[key] = "body of " + key
				}

				uploadRequests := 0
				var created struct {
					Config []models.FileRef `json:"config"`
				}
				router := gin.New()
				router.POST("/api/v1/admin/uploads", func(c *gin.Context) {
					uploadRequests++
					form, err := c.MultipartForm()
					if err != nil {
						c.String(http.StatusBadRequest, err.Error())
						return
					}
					// answer newest first, naming each record as the server sees it
					headers := form.File["files"]
					records := make([]string, 0, len(headers))
					for i := len(headers) - 1; i >= 0; i-- {
						records = append(records, fmt.Sprintf(`{"id": %d, "name": %q, "size": %d, "path": "uploads/x", "mime_type": "text/plain", "user_id": "u"}`,
							100+i, headers[i].Filename, headers[i].Size))
					}
					c.String(http.StatusOK, "["+strings.Join(records, ",")+"]")
				})
				router.POST("/api/v1/admin/datasources", func(c *gin.Context) {
					if err := c.ShouldBindJSON(&created); err != nil {
						c.String(http.StatusBadRequest, err.Error())
						return
					}
					c.String(http.StatusCreated, datasourceJSON(5, "file", `[{"file_id": 100, "file_name": "x"}]`))
				})
				backend := newBackend(t, router)

				importer := services.NewImporter(services.NewS3SourceWithClient(fake, "kb"), backend.Uploads, backend.Datasources, zerolog.Nop())
				result, err := importer.Import(ctx, services.ImportRequest{Prefix: tc.prefix, Name: "handbook"})

				require.NoError(t, err)
				assert.Equal(t, 1, uploadRequests)
				require.Len(t, created.Config, len(tc.files))
				for i, name := range tc.files {
					assert.Equal(t, name, created.Config[i].FileName)
					assert.Equal(t, 100+i, created.Config[i].FileID)
					assert.Equal(t, name, result.Uploads[i].Name)
				}
			})
		}
	})
}
