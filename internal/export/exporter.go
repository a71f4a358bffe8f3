// Package export publishes finished audits outside the service: to an
// object store bucket or into a git repository.
package export

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/metrics"
)

var (
	// ErrNotConfigured is returned by NoopExporter.
	ErrNotConfigured = errors.New("audit publishing is not configured")
	// ErrExportFailed wraps every backend failure.
	ErrExportFailed = errors.New("audit export failed")
	ErrInvalidID    = errors.New("invalid audit id")
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ArtifactLocation tells the caller where a published audit ended up.
type ArtifactLocation struct {
	Exporter string `json:"exporter"`
	Key      string `json:"key"`
	URL      string `json:"url,omitempty"`
	Commit   string `json:"commit,omitempty"`
}

// Exporter writes one audit document somewhere durable.
type Exporter interface {
	Name() string
	Export(ctx context.Context, auditID, content string) (ArtifactLocation, error)
}

// ObjectKey is the relative path an audit is published under.
func ObjectKey(auditID string) string {
	return "audits/" + auditID + ".md"
}

func checkID(auditID string) error {
	if !idPattern.MatchString(auditID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, auditID)
	}
	return nil
}

// NoopExporter is installed when no publishing backend is configured.
type NoopExporter struct{}

func (NoopExporter) Name() string { return "none" }

func (NoopExporter) Export(ctx context.Context, auditID, content string) (ArtifactLocation, error) {
	return ArtifactLocation{}, ErrNotConfigured
}

// Publisher bounds an exporter with a timeout and records the outcome.
type Publisher struct {
	exp     Exporter
	timeout time.Duration
}

func NewPublisher(exp Exporter, timeout time.Duration) *Publisher {
	if exp == nil {
		exp = NoopExporter{}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Publisher{exp: exp, timeout: timeout}
}

// Configured reports whether a real backend is installed.
func (p *Publisher) Configured() bool {
	_, noop := p.exp.(NoopExporter)
	return !noop
}

func (p *Publisher) Publish(ctx context.Context, auditID, content string) (ArtifactLocation, error) {
	if err := checkID(auditID); err != nil {
		return ArtifactLocation{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	loc, err := p.exp.Export(ctx, auditID, content)
	switch {
	case err == nil:
		metrics.Exports.WithLabelValues(p.exp.Name(), "ok").Inc()
		logger.Infof("audit published id=%s exporter=%s key=%s", auditID, p.exp.Name(), loc.Key)
		return loc, nil
	case errors.Is(err, ErrNotConfigured):
		metrics.Exports.WithLabelValues(p.exp.Name(), "not_configured").Inc()
		return ArtifactLocation{}, err
	}
	metrics.Exports.WithLabelValues(p.exp.Name(), "error").Inc()
	logger.Errorf("audit publish failed id=%s exporter=%s: %v", auditID, p.exp.Name(), err)
	if !errors.Is(err, ErrExportFailed) {
		err = fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return ArtifactLocation{}, err
}
