// Package export renders step and funnel reports as CSV and archives them to
// S3 for downstream BI tooling. Export is optional: the server only wires an
// Exporter when a bucket is configured.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/outreach-analytics/internal/domain"
)

// s3API is the slice of the S3 client the exporter needs; narrowed for
// testing.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Exporter uploads CSV reports to one bucket.
type Exporter struct {
	client s3API
	bucket string

	now func() time.Time
}

// NewExporter creates an exporter using the default AWS credential chain.
// profile is optional.
func NewExporter(ctx context.Context, bucket, region, profile string) (*Exporter, error) {
	var cfg aws.Config
	var err error
	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Exporter{client: s3.NewFromConfig(cfg), bucket: bucket, now: time.Now}, nil
}

// newWithClient is the test constructor.
func newWithClient(client s3API, bucket string) *Exporter {
	return &Exporter{client: client, bucket: bucket, now: time.Now}
}

// ExportFunnel uploads one campaign's funnel report. Returns the object key.
func (e *Exporter) ExportFunnel(ctx context.Context, companyID string, report domain.FunnelReport) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{
		"step_index", "entity_id", "subject", "sent", "delivered",
		"retention_from_first", "dropoff_from_previous", "dropoff_rate",
	})
	for _, fs := range report.FunnelSteps {
		w.Write([]string{
			strconv.Itoa(fs.StepIndex),
			fs.EntityID,
			fs.Subject,
			strconv.Itoa(fs.Sent),
			strconv.Itoa(fs.Delivered),
			formatRatio(fs.RetentionFromFirst),
			strconv.Itoa(fs.DropoffFromPrevious),
			formatRatio(fs.DropoffRate),
		})
	}
	w.Write([]string{"overall_conversion", formatRatio(report.OverallConversion)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render funnel csv: %w", err)
	}

	return e.upload(ctx, companyID, report.CampaignID, "funnel", buf.Bytes())
}

// ExportSteps uploads one campaign's ordered step comparison.
func (e *Exporter) ExportSteps(ctx context.Context, companyID, campaignID string, steps []domain.StepComparison) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{
		"sequence_order", "entity_id", "step_type", "subject",
		"sent", "delivered", "opened", "clicked", "replied",
		"bounced", "unsubscribed", "spam_complaints", "conversion_from_previous",
	})
	for _, s := range steps {
		w.Write([]string{
			strconv.Itoa(s.SequenceOrder),
			s.EntityID,
			string(s.StepType),
			s.Subject,
			strconv.Itoa(s.Sent),
			strconv.Itoa(s.Delivered),
			strconv.Itoa(s.Opened),
			strconv.Itoa(s.Clicked),
			strconv.Itoa(s.Replied),
			strconv.Itoa(s.Bounced),
			strconv.Itoa(s.Unsubscribed),
			strconv.Itoa(s.SpamComplaints),
			formatRatio(s.ConversionFromPrevious),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("render steps csv: %w", err)
	}

	return e.upload(ctx, companyID, campaignID, "steps", buf.Bytes())
}

func (e *Exporter) upload(ctx context.Context, companyID, campaignID, kind string, body []byte) (string, error) {
	key := fmt.Sprintf("reports/%s/%s/%s-%s.csv",
		companyID, campaignID, kind, e.now().UTC().Format("20060102T150405Z"))

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s report: %w", kind, err)
	}
	return key, nil
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
