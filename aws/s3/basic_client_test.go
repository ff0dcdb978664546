package s3

import (
	"context"
	"io/ioutil"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type fakeS3API struct {
	s3iface.S3API
	puts map[string]string
}

func (f *fakeS3API) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	b, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestBasicClient_Put(t *testing.T) {
	api := &fakeS3API{puts: make(map[string]string)}
	c := NewBasicClientWithAPI("s3://bucket", "eu-west-2", "dbt/", api)
	if err := c.Put(context.Background(), "/abc/run_results.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	got, ok := api.puts["bucket/dbt/abc/run_results.json"]
	if !ok || got != "{}" {
		t.Fatalf("unexpected puts %v", api.puts)
	}
	// No prefix.
	c = NewBasicClientWithAPI("bucket", "eu-west-2", "", api)
	if err := c.Put(context.Background(), "x.json", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if api.puts["bucket/x.json"] != "1" {
		t.Fatalf("unexpected puts %v", api.puts)
	}
}
