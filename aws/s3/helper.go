package s3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/rdbms/shared"
)

var DefaultS3ConnectionKeyNames = struct {
	Name   string
	Prefix string
	Region string
}{
	Name:   "name",
	Prefix: "prefix",
	Region: "region",
}

// AwsS3Bucket describes a bucket and prefix that dbt artifacts can be written to.
// If Dsn is set it takes priority over Name and Prefix.
type AwsS3Bucket struct {
	Name   string `errorTxt:"bucket name"`
	Prefix string `errorTxt:"bucket prefix"`
	Region string `errorTxt:"bucket region" mandatory:"yes"`
	Dsn    string
}

func (d AwsS3Bucket) resolve() (AwsS3Bucket, error) {
	dsn := d.Dsn
	if dsn == "" {
		dsn = fmt.Sprintf("%s/%s", d.Name, d.Prefix)
	}
	return ParseDSN(dsn, d.Region)
}

func (d AwsS3Bucket) Parse() error {
	_, err := d.resolve()
	return err
}

func (d AwsS3Bucket) GetScheme() (string, error) {
	return constants.ConnectionTypeS3, nil
}

// GetMap saves the resolved bucket details into m.
// Call Parse first since an invalid bucket is saved with empty values.
func (d AwsS3Bucket) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	b, _ := d.resolve()
	m[DefaultS3ConnectionKeyNames.Name] = b.Name
	m[DefaultS3ConnectionKeyNames.Prefix] = b.Prefix
	m[DefaultS3ConnectionKeyNames.Region] = b.Region
	return m
}

func (d AwsS3Bucket) String() string {
	return fmt.Sprintf("s3://%v/%v (%v)", d.Name, d.Prefix, d.Region)
}

// NewAwsBucket converts generic connection details into an AwsS3Bucket.
func NewAwsBucket(c *shared.ConnectionDetails) (*AwsS3Bucket, error) {
	if c.Type != constants.ConnectionTypeS3 {
		return nil, fmt.Errorf("connection %q is of type %q, expected %q", c.LogicalName, c.Type, constants.ConnectionTypeS3)
	}
	b := &AwsS3Bucket{
		Name:   c.Data[DefaultS3ConnectionKeyNames.Name],
		Prefix: c.Data[DefaultS3ConnectionKeyNames.Prefix],
		Region: c.Data[DefaultS3ConnectionKeyNames.Region],
	}
	if b.Name == "" {
		return nil, fmt.Errorf("connection %q is missing a bucket name", c.LogicalName)
	}
	return b, nil
}

// ParseDSN expects bucketPrefix to be of the form [s3://]<bucket>/<prefix>
// It returns an AwsS3Bucket populated with the components of bucketPrefix and the supplied region.
// If there is a parsing error it returns an error.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	expectedScheme := "s3"
	if !strings.Contains(bucketPrefix, "://") { // if there's no scheme then the bucket would be parsed as a path...
		bucketPrefix = expectedScheme + "://" + bucketPrefix
	}
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	retval.Dsn = fmt.Sprintf("%v://%v/%v", expectedScheme, retval.Name, retval.Prefix)
	return
}
