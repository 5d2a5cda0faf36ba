package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"clipforge/config"
	"clipforge/fault"
	"clipforge/logger"
)

// Resolver turns locators into local files (inputs) and uploaders (outputs).
// It holds the process-wide transfer credentials; the S3 client is built
// lazily on first credentialed resolution and never rebuilt.
type Resolver struct {
	cfg  config.StorageConfig
	http *http.Client

	s3Once   sync.Once
	s3Client *s3.Client
	s3Err    error
}

func NewResolver(cfg config.StorageConfig) *Resolver {
	return &Resolver{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (r *Resolver) client(ctx context.Context) (*s3.Client, error) {
	r.s3Once.Do(func() {
		r.s3Client, r.s3Err = newS3Client(ctx, r.cfg)
	})
	return r.s3Client, r.s3Err
}

// FetchToFile materializes the locator's bytes into localPath. The native
// transform only operates on local paths, so every input passes through
// here first. The caller owns localPath and its cleanup.
func (r *Resolver) FetchToFile(ctx context.Context, loc Locator, localPath string) error {
	switch loc.Kind {
	case KindHTTP, KindPresigned:
		return r.httpGetToFile(ctx, loc.URL, localPath)

	case KindObjectStore:
		if r.cfg.HasCredentials() {
			return r.objectGetToFile(ctx, loc, localPath)
		}
		publicURL, err := r.publicURLFor(loc)
		if err != nil {
			return err
		}
		return r.httpGetToFile(ctx, publicURL, localPath)

	default:
		return fault.Newf(fault.UnresolvableURI, "unknown locator kind %d", loc.Kind)
	}
}

// Uploader pushes a fully-written local file to its destination. The upload
// only begins once the transform has succeeded, so a failed task writes
// nothing.
type Uploader interface {
	Upload(ctx context.Context, localPath string) error
	Destination() string
}

// ResolveOutput maps an output locator to an uploader. Object-store outputs
// require credentials; the public-base fallback is read-only. HTTP and
// presigned locators are direct PUT targets needing no credential lookup.
func (r *Resolver) ResolveOutput(loc Locator) (Uploader, error) {
	switch loc.Kind {
	case KindPresigned, KindHTTP:
		return &httpPutUploader{resolver: r, url: loc.URL}, nil
	case KindObjectStore:
		if !r.cfg.HasCredentials() {
			return nil, fault.Newf(fault.NoPresignMethod,
				"object store output %s requires credentials", loc)
		}
		return &objectUploader{resolver: r, bucket: loc.Bucket, key: loc.Key}, nil
	default:
		return nil, fault.Newf(fault.UnresolvableURI, "unknown locator kind %d", loc.Kind)
	}
}

type objectUploader struct {
	resolver *Resolver
	bucket   string
	key      string
}

func (u *objectUploader) Destination() string {
	return fmt.Sprintf("s3://%s/%s", u.bucket, u.key)
}

func (u *objectUploader) Upload(ctx context.Context, localPath string) error {
	client, err := u.resolver.client(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to open output file")
	}
	defer file.Close()

	uploader := manager.NewUploader(client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(u.key),
		Body:   file,
	})
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed,
			fmt.Sprintf("failed to upload object %s to bucket %s", u.key, u.bucket))
	}

	logger.Infof("uploaded object %q to bucket %q", u.key, u.bucket)
	return nil
}

type httpPutUploader struct {
	resolver *Resolver
	url      string
}

func (u *httpPutUploader) Destination() string { return u.url }

func (u *httpPutUploader) Upload(ctx context.Context, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to open output file")
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to stat output file")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.url, file)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to build PUT request")
	}
	req.ContentLength = info.Size()

	resp, err := u.resolver.http.Do(req)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "PUT request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.Newf(fault.TransferFailed, "PUT returned status %d", resp.StatusCode)
	}

	logger.Infof("uploaded %d bytes to presigned destination", info.Size())
	return nil
}

// PresignGet returns a time-limited GET URL for an object-store locator.
func (r *Resolver) PresignGet(ctx context.Context, loc Locator) (string, error) {
	return r.presign(ctx, loc, false)
}

// PresignPut returns a time-limited PUT URL for an object-store locator.
func (r *Resolver) PresignPut(ctx context.Context, loc Locator) (string, error) {
	return r.presign(ctx, loc, true)
}

func (r *Resolver) presign(ctx context.Context, loc Locator, put bool) (string, error) {
	if loc.Kind != KindObjectStore {
		return "", fault.Newf(fault.UnresolvableURI, "cannot presign non object-store locator %s", loc)
	}
	client, err := r.client(ctx)
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	expiry := func(o *s3.PresignOptions) { o.Expires = r.cfg.PresignTTL }

	if put {
		out, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(loc.Bucket),
			Key:    aws.String(loc.Key),
		}, expiry)
		if err != nil {
			return "", fault.Wrap(err, fault.TransferFailed, "failed to presign PUT")
		}
		return out.URL, nil
	}

	out, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	}, expiry)
	if err != nil {
		return "", fault.Wrap(err, fault.TransferFailed, "failed to presign GET")
	}
	return out.URL, nil
}

// Exists issues a lightweight existence probe for an object: a HEAD against
// the public base when one is configured, otherwise a credentialed
// HeadObject.
func (r *Resolver) Exists(ctx context.Context, loc Locator) (bool, error) {
	if loc.Kind != KindObjectStore {
		return false, fault.Newf(fault.UnresolvableURI, "existence probe needs an object-store locator, got %s", loc)
	}

	if publicURL, err := r.publicURLFor(loc); err == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, publicURL, nil)
		if err != nil {
			return false, fault.Wrap(err, fault.TransferFailed, "failed to build HEAD request")
		}
		resp, err := r.http.Do(req)
		if err != nil {
			return false, fault.Wrap(err, fault.TransferFailed, "HEAD request failed")
		}
		resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
	}

	if !r.cfg.HasCredentials() {
		return false, fault.New(fault.NoPresignMethod,
			"existence probe needs either a public base URL or credentials")
	}

	client, err := r.client(ctx)
	if err != nil {
		return false, err
	}
	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fault.Wrap(err, fault.TransferFailed, "HeadObject failed")
	}
	return true, nil
}

// publicURLFor constructs the public fallback URL for an object. A fallback
// restricted to one bucket rejects any other bucket rather than silently
// resolving it.
func (r *Resolver) publicURLFor(loc Locator) (string, error) {
	type base struct {
		url      string
		restrict string
	}
	bases := []base{
		{r.cfg.PublicBaseURL, r.cfg.PublicBucket},
		{r.cfg.VideosPublicBaseURL, r.cfg.VideosPublicBucket},
	}

	restricted := false
	for _, b := range bases {
		if b.url == "" {
			continue
		}
		if b.restrict == "" || b.restrict == loc.Bucket {
			return b.url + "/" + loc.Key, nil
		}
		restricted = true
	}

	if restricted {
		return "", fault.Newf(fault.NoPresignMethod,
			"public base is restricted to another bucket, refusing %q", loc.Bucket)
	}
	return "", fault.Newf(fault.NoPresignMethod,
		"no credentials and no public base URL configured for %s", loc)
}

func (r *Resolver) objectGetToFile(ctx context.Context, loc Locator, localPath string) error {
	client, err := r.client(ctx)
	if err != nil {
		return err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed,
			fmt.Sprintf("failed to fetch object %s from bucket %s", loc.Key, loc.Bucket))
	}
	defer out.Body.Close()

	return writeStream(localPath, out.Body)
}

func (r *Resolver) httpGetToFile(ctx context.Context, rawURL, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to build GET request")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "GET request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fault.Newf(fault.TransferFailed, "GET %s returned status %d", rawURL, resp.StatusCode)
	}

	return writeStream(localPath, resp.Body)
}

func writeStream(localPath string, src io.Reader) error {
	file, err := os.Create(localPath)
	if err != nil {
		return fault.Wrap(err, fault.TransferFailed, "failed to create local file")
	}
	defer file.Close()

	if _, err := io.Copy(file, src); err != nil {
		os.Remove(localPath)
		return fault.Wrap(err, fault.TransferFailed, "failed to stream to local file")
	}
	return nil
}
