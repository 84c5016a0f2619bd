package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/DSACMS/process-information-api/pkg/core"
)

type Options struct {
	// Override for testing the HTTP client
	HTTPClient *http.Client
	// Structured logger using slog package
	Logger *slog.Logger
}

type azureStore struct {
	client    *azblob.Client
	container string
	blob      string
	logger    *slog.Logger
}

// NewAzureStore resolves the credential once and builds a blob client with
// retries disabled.
func NewAzureStore(ctx context.Context, provider CredentialProvider, opts Options) (Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	src, err := provider.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve storage credential: %w", err)
	}

	client, err := newBlobClient(src, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}

	return &azureStore{
		client:    client,
		container: src.Container,
		blob:      src.Blob,
		logger: logger.With(
			slog.String("component", "templates"),
			slog.String("store", "azure"),
			slog.String("container", src.Container),
			slog.String("blob", src.Blob),
		),
	}, nil
}

func newBlobClient(src Source, httpClient *http.Client) (*azblob.Client, error) {
	clientOpts := &azblob.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}
	if httpClient != nil {
		clientOpts.Transport = httpClient
	}

	switch {
	case src.ConnectionString != "":
		return azblob.NewClientFromConnectionString(src.ConnectionString, clientOpts)
	case src.ServiceURL != "" && src.Credential != nil:
		return azblob.NewClient(src.ServiceURL, src.Credential, clientOpts)
	case src.ServiceURL != "":
		return azblob.NewClientWithNoCredential(src.ServiceURL, clientOpts)
	}
	return nil, errors.New("source has neither a connection string nor a service URL")
}

func (s *azureStore) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound) {
			return nil, core.NewStorageError(fmt.Sprintf("template %s/%s does not exist", s.container, s.blob), err)
		}
		return nil, core.NewStorageError("download template", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, resp.Body)
	if err != nil {
		return nil, core.NewStorageError("read template", err)
	}

	if resp.ContentLength != nil && n != *resp.ContentLength {
		return nil, core.NewStorageError(
			fmt.Sprintf("template download truncated: got %d of %d bytes", n, *resp.ContentLength), nil)
	}

	s.logger.DebugContext(ctx, "template downloaded", slog.Int64("bytes", n))

	return buf.Bytes(), nil
}
