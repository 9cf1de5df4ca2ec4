package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/braunma/dem-console/internal/constants"
	"github.com/braunma/dem-console/pkg/render"
	"github.com/braunma/dem-console/pkg/session"
	"github.com/braunma/dem-console/pkg/uri"
	"github.com/braunma/dem-console/pkg/utils"
)

// DemClient handles all DEM REST API operations
type DemClient struct {
	session    session.Session
	httpClient *http.Client
	cache      *PickListCache
	groups     *GroupManager
	logger     *utils.Logger
	dryRun     bool
	onDrop     func(error)
}

// NewClient creates a new DEM API client for a logged-in session
func NewClient(sess session.Session, dryRun bool) *DemClient {
	return NewClientWithLogger(sess, utils.NewLogger(dryRun))
}

// NewClientWithLogger creates a client reporting through logger
func NewClientWithLogger(sess session.Session, logger *utils.Logger) *DemClient {
	client := &DemClient{
		session:    sess,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		dryRun:     logger.IsDryRun(),
	}

	client.cache = NewPickListCache(client)
	client.groups = NewGroupManager(client)
	return client
}

// Object represents a generic DEM JSON object
type Object map[string]interface{}

// OnDrop registers a callback run when an error ends the session, such as
// clearing the saved session file
func (c *DemClient) OnDrop(fn func(error)) {
	c.onDrop = fn
}

// Request makes an HTTP request to the DEM and returns the raw reply body
func (c *DemClient) Request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := c.session.BaseURL() + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", c.session.Authorization())
	req.Header.Set("Content-Type", "text/plain; charset=UTF-8")
	req.Header.Set("X-Request-Id", uuid.NewString())

	if c.dryRun && method != http.MethodGet {
		c.logger.DryRun(method, path)
		return nil, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the caller gave up, the DEM did not
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, ctxErr)
		}
		return nil, c.drop(fmt.Errorf("%w (%s %s: %v)", ErrUnreachable, method, path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return respBody, nil
	case http.StatusForbidden:
		return nil, c.drop(ErrForbidden)
	}
	return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
}

func (c *DemClient) drop(err error) error {
	if c.onDrop != nil {
		c.onDrop(err)
	}
	return err
}

// Get retrieves the JSON object at path
func (c *DemClient) Get(ctx context.Context, path string) (Object, error) {
	body, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var result Object
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return result, nil
}

// Show fetches and renders the view at a location. Bodies that are not
// JSON objects, such as log pages, come back as raw text.
func (c *DemClient) Show(ctx context.Context, loc uri.Location) (render.Fragment, error) {
	body, err := c.Request(ctx, http.MethodGet, loc.Path(), nil)
	if err != nil {
		return render.Fragment{}, err
	}
	return render.RenderBody(loc, body), nil
}

// List returns the aliases of every object of a type
func (c *DemClient) List(ctx context.Context, objectType string) ([]string, error) {
	obj, err := c.Get(ctx, objectType)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", objectType, err)
	}

	items, _ := obj[utils.Capitalize(objectType)+"s"].([]interface{})
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, utils.StringValue(item))
	}
	return names, nil
}

// Do sends a write request built from UI state. Pick-lists of the written
// object type are dropped so the next dialog sees the change.
func (c *DemClient) Do(ctx context.Context, req uri.Request) ([]byte, error) {
	var body interface{}
	if req.HasBody {
		body = req.Node.Fields
	}

	reply, err := c.Request(ctx, req.Verb, req.URI, body)
	if err != nil {
		return nil, err
	}
	if req.Verb != http.MethodGet {
		c.cache.Invalidate(req.Node.ObjectType)
	}
	return reply, nil
}

// Usage returns the usage view of a target
func (c *DemClient) Usage(ctx context.Context, alias string) (render.Fragment, error) {
	return c.Show(ctx, uri.Location{Type: constants.TypeTarget, Value: alias, Sub: constants.MethodUsage})
}

// LogPage returns the discovery log page of a target or host
func (c *DemClient) LogPage(ctx context.Context, objectType, alias string) (render.Fragment, error) {
	return c.Show(ctx, uri.Location{Type: objectType, Value: alias, Sub: constants.MethodLogPage})
}

// Refresh asks the DEM to re-read a target
func (c *DemClient) Refresh(ctx context.Context, alias string) error {
	return c.post(ctx, uri.ActionRefresh, constants.TypeTarget, alias)
}

// Reconfigure pushes the stored configuration to a target
func (c *DemClient) Reconfigure(ctx context.Context, alias string) error {
	return c.post(ctx, uri.ActionReconfigure, constants.TypeTarget, alias)
}

// Shutdown stops the DEM
func (c *DemClient) Shutdown(ctx context.Context) error {
	return c.post(ctx, uri.ActionShutdown, constants.TypeDem, "")
}

func (c *DemClient) post(ctx context.Context, action uri.Action, objectType, value string) error {
	req, err := uri.NewRequest(uri.Location{Type: objectType, Value: value}.Node(), action)
	if err != nil {
		return err
	}
	_, err = c.Do(ctx, req)
	return err
}

// Signature replaces the DEM credentials. Both tokens are base64 user:password.
func (c *DemClient) Signature(ctx context.Context, oldToken, newToken string) error {
	body := map[string]string{
		constants.TagSignatureOld: oldToken,
		constants.TagSignatureNew: newToken,
	}
	_, err := c.Request(ctx, http.MethodPost, constants.TypeDem+"/"+constants.MethodSignature, body)
	return err
}

// Session returns the session the client talks with
func (c *DemClient) Session() session.Session {
	return c.session
}

// Cache returns the pick-list cache
func (c *DemClient) Cache() *PickListCache {
	return c.cache
}

// Options returns the cached aliases offered by pick-list dialogs
func (c *DemClient) Options(ctx context.Context, objectType string) ([]string, error) {
	return c.cache.Options(ctx, objectType)
}

// Groups returns the group membership manager
func (c *DemClient) Groups() *GroupManager {
	return c.groups
}

// SetTimeout bounds each request to the DEM
func (c *DemClient) SetTimeout(d time.Duration) {
	c.httpClient.Timeout = d
}

// SetDryRun sets the dry-run mode
func (c *DemClient) SetDryRun(enabled bool) {
	c.dryRun = enabled
}

// IsDryRun returns the dry-run status
func (c *DemClient) IsDryRun() bool {
	return c.dryRun
}

// Logger returns the logger
func (c *DemClient) Logger() *utils.Logger {
	return c.logger
}
