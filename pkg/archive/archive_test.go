package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input    *s3manager.UploadInput
	body     []byte
	location string
	err      error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3manager.UploadOutput{Location: f.location}, nil
}

func TestPutUsesPrefixedKey(t *testing.T) {
	up := &fakeUploader{location: "https://archive.example/invoices/INV-000001.pdf"}
	s := New(up, "archive", "/invoices/")

	url, err := s.Put(context.Background(), "INV-000001.pdf", "application/pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, up.location, url)
	assert.Equal(t, "archive", aws.StringValue(up.input.Bucket))
	assert.Equal(t, "invoices/INV-000001.pdf", aws.StringValue(up.input.Key))
	assert.Equal(t, "application/pdf", aws.StringValue(up.input.ContentType))
	assert.Equal(t, "%PDF-1.3", string(up.body))
}

func TestPutFallsBackToBucketURL(t *testing.T) {
	s := New(&fakeUploader{}, "archive", "")
	url, err := s.Put(context.Background(), "QUO-000002.pdf", "application/pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.s3.amazonaws.com/QUO-000002.pdf", url)
}

func TestPutWrapsUploadError(t *testing.T) {
	boom := errors.New("access denied")
	s := New(&fakeUploader{err: boom}, "archive", "docs")
	_, err := s.Put(context.Background(), "x.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, boom)
}
