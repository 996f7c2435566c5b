package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	sdk "github.com/faciam-dev/gridbi/sdk"
)

// Client provides REST access to the GridBI API.
type Client struct {
	base   string
	tenant string
	http   *resty.Client
	log    *zap.SugaredLogger
}

type Option func(*Client)

// WithTenant sets the X-Tenant-ID header on every request.
func WithTenant(tid string) Option {
	return func(c *Client) { c.tenant = tid }
}

// WithLogger replaces the no-op logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for the given base URL.
func New(base string, opts ...Option) *Client {
	c := &Client{base: base, http: resty.New(), log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) req(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if c.tenant != "" {
		r.SetHeader("X-Tenant-ID", c.tenant)
	}
	return r
}

func restyErr(resp *resty.Response) error {
	return fmt.Errorf("api error: %s: %s", resp.Status(), resp.String())
}

// ListDashboards fetches all dashboards for the tenant.
func (c *Client) ListDashboards(ctx context.Context) ([]sdk.Dashboard, error) {
	var out []sdk.Dashboard
	resp, err := c.req(ctx).SetResult(&out).Get(c.base + "/v1/dashboards")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, restyErr(resp)
	}
	c.log.Debugw("listed dashboards", "count", len(out))
	return out, nil
}

// ListWidgets fetches a page of widgets.
func (c *Client) ListWidgets(ctx context.Context, limit, offset int) (sdk.WidgetList, error) {
	var out sdk.WidgetList
	resp, err := c.req(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("offset", strconv.Itoa(offset)).
		SetResult(&out).
		Get(c.base + "/v1/widgets")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	return out, nil
}

// ListConnections fetches all data connections.
func (c *Client) ListConnections(ctx context.Context) ([]sdk.Connection, error) {
	var out []sdk.Connection
	resp, err := c.req(ctx).SetResult(&out).Get(c.base + "/v1/connections")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, restyErr(resp)
	}
	return out, nil
}

// ListDatasets fetches all datasets.
func (c *Client) ListDatasets(ctx context.Context) ([]sdk.Dataset, error) {
	var out []sdk.Dataset
	resp, err := c.req(ctx).SetResult(&out).Get(c.base + "/v1/datasets")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, restyErr(resp)
	}
	return out, nil
}

// ListDbQaQueries fetches all health-check queries.
func (c *Client) ListDbQaQueries(ctx context.Context) ([]sdk.DbQaQuery, error) {
	var out []sdk.DbQaQuery
	resp, err := c.req(ctx).SetResult(&out).Get(c.base + "/v1/db-qa/queries")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, restyErr(resp)
	}
	return out, nil
}

// RunDbQaQuery runs one health-check query now.
func (c *Client) RunDbQaQuery(ctx context.Context, id int64) (sdk.RunReport, error) {
	var out sdk.RunReport
	resp, err := c.req(ctx).SetResult(&out).
		Post(fmt.Sprintf("%s/v1/db-qa/queries/%d/run", c.base, id))
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		return out, restyErr(resp)
	}
	c.log.Infow("ran health check", "query", id, "rows", out.RowCount, "alerts", len(out.Alerts))
	return out, nil
}

// ListAlerts fetches all alerts.
func (c *Client) ListAlerts(ctx context.Context) ([]sdk.Alert, error) {
	var out []sdk.Alert
	resp, err := c.req(ctx).SetResult(&out).Get(c.base + "/v1/db-qa/alerts")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, restyErr(resp)
	}
	return out, nil
}
