package kaggle

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gigapi/gigapi-accidents/archive"
	"github.com/gigapi/gigapi-accidents/core"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultBaseURL is the public Kaggle REST API root
const DefaultBaseURL = "https://www.kaggle.com/api/v1"

var tracer = otel.Tracer("kaggle")

// Ensure Client implements core.DatasetService interface
var _ core.DatasetService = (*Client)(nil)

// Client downloads datasets from the Kaggle API
type Client struct {
	Http  *resty.Client
	creds Credentials
}

type ClientOptions struct {
	BaseUrl     string
	Credentials Credentials
	// Timeout bounds each download. Zero disables it.
	Timeout time.Duration
}

// NewClient builds a client. Credentials are resolved on construction so a
// missing API key fails before any download is attempted.
func NewClient(opts ClientOptions) (*Client, error) {
	creds, err := LookupCredentials(opts.Credentials)
	if err != nil {
		return nil, err
	}

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseURL
	}
	if _, err := url.Parse(baseUrl); err != nil {
		return nil, fmt.Errorf("invalid kaggle base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseUrl, "/"))
	client.SetBasicAuth(creds.Username, creds.Key)
	client.SetHeader("user-agent", "gigapi-accidents")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Client{Http: client, creds: creds}, nil
}

// Username returns the authenticated account name
func (c *Client) Username() string {
	return c.creds.Username
}

func datasetPath(dataset string, segments ...string) (string, error) {
	ref, err := core.ParseDatasetReference(dataset)
	if err != nil {
		return "", err
	}
	parts := []string{"/datasets/download", url.PathEscape(ref.Owner), url.PathEscape(ref.Name)}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/"), nil
}

// download streams the response of endpoint into dir/name on fs
func (c *Client) download(ctx context.Context, dataset, file, endpoint string, fs afero.Fs, target string) error {
	res, err := c.Http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(endpoint)
	if err != nil {
		return &core.RemoteServiceError{Dataset: dataset, File: file, Err: err}
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(body, 512))
		return &core.RemoteServiceError{
			Dataset:    dataset,
			File:       file,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(msg))),
		}
	}

	if err := fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return err
	}
	// target only appears once the whole body has arrived
	part := target + ".part"
	if err := afero.WriteReader(fs, part, body); err != nil {
		_ = fs.Remove(part)
		return &core.RemoteServiceError{Dataset: dataset, File: file, Err: err}
	}
	if err := fs.Rename(part, target); err != nil {
		_ = fs.Remove(part)
		return err
	}
	return nil
}

// DownloadDataset fetches the whole dataset archive as dir/<name>.zip
func (c *Client) DownloadDataset(ctx context.Context, dataset string, fs afero.Fs, dir string, unzip bool) error {
	ctx, span := tracer.Start(ctx, "client:DownloadDataset")
	defer span.End()
	span.SetAttributes(attribute.String("dataset", dataset))

	endpoint, err := datasetPath(dataset)
	if err != nil {
		span.SetStatus(codes.Error, "invalid dataset reference")
		return err
	}
	ref, _ := core.ParseDatasetReference(dataset)
	target := path.Join(dir, ref.ArchiveName())

	core.Infof(ctx, "Downloading dataset %s to %s", dataset, target)
	if err := c.download(ctx, dataset, "", endpoint, fs, target); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download dataset")
		return err
	}

	if unzip {
		if _, err := archive.Extract(fs, target, dir); err != nil {
			span.SetStatus(codes.Error, "failed to extract dataset")
			return err
		}
	}
	return nil
}

// DownloadFile fetches one file of the dataset as dir/<file>
func (c *Client) DownloadFile(ctx context.Context, dataset, file string, fs afero.Fs, dir string, unzip bool) error {
	ctx, span := tracer.Start(ctx, "client:DownloadFile")
	defer span.End()
	span.SetAttributes(attribute.String("dataset", dataset), attribute.String("file", file))

	endpoint, err := datasetPath(dataset, file)
	if err != nil {
		span.SetStatus(codes.Error, "invalid dataset reference")
		return err
	}
	target := path.Join(dir, path.Base(file))

	core.Infof(ctx, "Downloading %s from dataset %s to %s", file, dataset, target)
	if err := c.download(ctx, dataset, file, endpoint, fs, target); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download file")
		return err
	}

	if unzip && core.IsArchive(target) {
		if _, err := archive.Extract(fs, target, dir); err != nil {
			span.SetStatus(codes.Error, "failed to extract file")
			return err
		}
	}
	return nil
}
