package controlhub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/sch-migrate/pkg/definition"
)

const (
	LoginPath         = "/security/public-rest/v1/authentication/login"
	PipelinesPath     = "/pipelinestore/rest/v1/pipelines"
	PipelineCommitFmt = "/pipelinestore/rest/v1/pipelineCommit/%s"
	DataCollectorFmt  = "/jobrunner/rest/v1/sdc/%s"
	DefinitionsFmt    = "/tunneling/rest/%s/rest/v1/definitions"

	AuthTokenHeader   = "X-SS-User-Auth-Token"
	RequestedByHeader = "X-Requested-By"
	RestCallHeader    = "X-SS-REST-CALL"

	requestedBy     = "sch-migrate"
	maxErrorMessage = 4096
)

// Client talks to one Control Hub instance.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	logger   *slog.Logger
	timeout  time.Duration
	username string
	password string

	mu    sync.Mutex
	token string
}

// Option configures a Client.
type Option func(c *Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestTimeout bounds every request. Zero means no bound.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// New creates a client. It does not contact the server.
func New(serverURL, username, password string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, ErrMissingServerURL
	}

	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Wrapf(ErrMissingServerURL, "invalid url %q", serverURL)
	}

	client := &Client{
		baseURL:  base,
		http:     http.DefaultClient,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		username: username,
		password: password,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Login opens a session and keeps its token for the following requests.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	body := map[string]string{"userName": c.username, "password": c.password}

	resp, err := c.send(ctx, http.MethodPost, LoginPath, nil, body, "")
	if err != nil {
		return errors.Wrap(err, "unable to log in")
	}
	defer resp.Body.Close()

	token := resp.Header.Get(AuthTokenHeader)
	if token == "" {
		return errors.Wrap(ErrUnauthorized, "no session token in login response")
	}

	c.token = token
	c.logger.DebugContext(ctx, "logged in to control hub", "server", c.baseURL.String(), "user", c.username)

	return nil
}

func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		err := c.login(ctx)
		if err != nil {
			return "", err
		}
	}

	return c.token, nil
}

// Pipeline returns the pipeline called name. The name must match exactly.
func (c *Client) Pipeline(ctx context.Context, name string) (*Pipeline, error) {
	query := url.Values{}
	query.Set("filterText", name)
	query.Set("offset", "0")
	query.Set("len", "-1")

	summaries := []CommitSummary{}

	err := c.do(ctx, http.MethodGet, PipelinesPath, query, nil, &summaries)
	if err != nil {
		return nil, errors.Wrap(err, "unable to search pipelines")
	}

	var found *CommitSummary

	for i := range summaries {
		if summaries[i].Name == name {
			found = &summaries[i]

			break
		}
	}

	if found == nil {
		return nil, errors.Wrap(ErrPipelineNotFound, name)
	}

	commit := &pipelineCommit{}

	err = c.do(ctx, http.MethodGet, sprintfPath(PipelineCommitFmt, found.CommitID), nil, nil, commit)
	if errors.Is(err, ErrNotFound) {
		return nil, errors.Wrapf(ErrPipelineNotFound, "%s: commit %s", name, found.CommitID)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to get commit %s", found.CommitID)
	}

	return decodeCommit(commit)
}

func decodeCommit(commit *pipelineCommit) (*Pipeline, error) {
	def, err := definition.ParsePipeline(commit.PipelineDefinition)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %s", commit.Name)
	}

	rules, err := definition.ParseRules(commit.RulesDefinition)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %s", commit.Name)
	}

	return &Pipeline{
		ID:         commit.PipelineID,
		CommitID:   commit.CommitID,
		Name:       commit.Name,
		Version:    commit.Version,
		SdcID:      commit.SdcID,
		SdcVersion: commit.SdcVersion,
		Definition: def,
		Rules:      rules,
	}, nil
}

// DataCollector returns the Data Collector registered under id.
func (c *Client) DataCollector(ctx context.Context, id string) (*DataCollector, error) {
	node := &DataCollector{}

	err := c.do(ctx, http.MethodGet, sprintfPath(DataCollectorFmt, id), nil, nil, node)
	if errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(ErrDataCollectorNotFound, id)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to get data collector %s", id)
	}

	return node, nil
}

// StageLibrary returns the stages offered by the Data Collector id.
func (c *Client) StageLibrary(ctx context.Context, id string) (*StageLibrary, error) {
	library := &StageLibrary{}

	err := c.do(ctx, http.MethodGet, sprintfPath(DefinitionsFmt, id), nil, nil, library)
	if errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(ErrDataCollectorNotFound, id)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to get stage definitions of %s", id)
	}

	return library, nil
}

// Publish commits pipe as a new pipeline version.
func (c *Client) Publish(ctx context.Context, pipe *Pipeline, commitMessage string) (*CommitSummary, error) {
	if pipe == nil || pipe.Definition == nil {
		return nil, ErrDefinitionMustBeSet
	}

	encoded, err := pipe.Definition.Encode()
	if err != nil {
		return nil, err
	}

	body := &pipelineCommit{
		CommitSummary: CommitSummary{
			PipelineID:    pipe.ID,
			Name:          pipe.Name,
			SdcID:         pipe.SdcID,
			SdcVersion:    pipe.SdcVersion,
			CommitMessage: commitMessage,
		},
		PipelineDefinition: encoded,
		RulesDefinition:    pipe.Rules.String(),
	}

	summary := &CommitSummary{}

	err = c.do(ctx, http.MethodPut, PipelinesPath, nil, body, summary)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to publish pipeline %s", pipe.Name)
	}

	return summary, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token, err := c.sessionToken(ctx)
	if err != nil {
		return err
	}

	resp, err := c.send(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return errors.Wrapf(err, "unable to decode response of %s %s", method, path)
	}

	return nil
}

// send performs one request and turns non 2xx responses into an *APIError.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, token string) (*http.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "unable to encode request body")
		}

		reader = bytes.NewReader(payload)
	}

	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestedByHeader, requestedBy)
	req.Header.Set(RestCallHeader, "true")

	if token != "" {
		req.Header.Set(AuthTokenHeader, token)
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}

	c.logger.DebugContext(ctx, "control hub request",
		"method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if c.timeout > 0 {
			return bufferBody(resp)
		}

		return resp, nil
	}

	defer resp.Body.Close()

	message, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorMessage))

	return nil, &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(message)),
	}
}

// bufferBody reads the body before the request context is cancelled.
func bufferBody(resp *http.Response) (*http.Response, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read response body")
	}

	resp.Body = io.NopCloser(bytes.NewReader(data))

	return resp, nil
}

func sprintfPath(format, id string) string {
	return strings.Replace(format, "%s", url.PathEscape(id), 1)
}
