// Package station drives the deployment-station checks against a set of
// running workloads. Each station maps to one diagnostic route which must
// answer 200 on every host for the station to pass.
package station

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"workload/internal/logger"
)

// DefaultPort is the port the workloads listen on.
const DefaultPort = 8080

// DefaultHosts are the microservices a station run checks when none are given.
var DefaultHosts = []string{"billing", "auth", "logging"}

// Routes maps a deployment station to the route its check calls.
var Routes = map[string]string{
	"test":  "regression",
	"stage": "stress",
	"prod":  "smoke",
}

// ErrUnknownStation is returned when the station has no route mapping.
var ErrUnknownStation = errors.New("invalid station")

// maxBodyLog bounds how much of a response body is logged.
const maxBodyLog = 4096

// HostError reports the first host that failed a station check.
type HostError struct {
	Host   string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *HostError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("station check failed for %s (%s): %v", e.Host, e.URL, e.Err)
	}
	return fmt.Sprintf("station check failed for %s (%s): status %d", e.Host, e.URL, e.Status)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

type options struct {
	port int
	log  *slog.Logger
}

// Option configures Run.
type Option func(*options)

// WithPort overrides the port used for every host.
func WithPort(port int) Option {
	return func(o *options) {
		o.port = port
	}
}

// WithLogger sets the logger that receives per-host progress.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// ValidStations returns the known station names in sorted order.
func ValidStations() []string {
	names := make([]string, 0, len(Routes))
	for name := range Routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// URL builds the check URL for host at the given station.
func URL(station, host string, port int) (string, error) {
	route, ok := Routes[station]
	if !ok {
		return "", fmt.Errorf("%w %q: valid stations are %s", ErrUnknownStation, station, strings.Join(ValidStations(), ", "))
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/" + route, nil
}

// Run checks each host in order and stops at the first failure. A transport
// error or any status other than 200 fails the host.
func Run(ctx context.Context, client *http.Client, station string, hosts []string, opts ...Option) error {
	o := options{port: DefaultPort, log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	if client == nil {
		client = http.DefaultClient
	}

	if _, err := URL(station, "", o.port); err != nil {
		return err
	}

	for _, host := range hosts {
		url, _ := URL(station, host, o.port)
		o.log.InfoContext(ctx, "Testing microservice", "host", host, "url", url)

		status, body, err := get(ctx, client, url)
		if err != nil {
			o.log.ErrorContext(ctx, "Test failed", "host", host, "error", err)
			return &HostError{Host: host, URL: url, Err: err}
		}
		if status != http.StatusOK {
			o.log.ErrorContext(ctx, "Test failed", "host", host, "status", status, "body", body)
			return &HostError{Host: host, URL: url, Status: status, Body: body}
		}
		o.log.InfoContext(ctx, "Test passed", "host", host, "body", body)
	}

	return nil
}

func get(ctx context.Context, client *http.Client, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyLog))
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}
