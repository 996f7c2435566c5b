package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	humago "github.com/danielgtaylor/huma/v2"

	"github.com/faciam-dev/gridbi/internal/logger"
	regwidgets "github.com/faciam-dev/gridbi/internal/registry/widgets"
	"github.com/faciam-dev/gridbi/internal/tenant"
)

// CatalogHandler serves the cached widget catalog. List responses carry
// ETag and Last-Modified so editors can poll cheaply.
type CatalogHandler struct {
	Reg regwidgets.Registry
}

type catalogParams struct {
	Type            string    `query:"type"`
	Q               string    `query:"q"`
	Limit           int       `query:"limit"`
	Offset          int       `query:"offset"`
	IfNoneMatch     string    `header:"If-None-Match"`
	IfModifiedSince time.Time `header:"If-Modified-Since"`
}

type catalogOut struct {
	ETag         string `header:"ETag"`
	LastModified string `header:"Last-Modified"`
	Body         struct {
		Widgets []regwidgets.Summary `json:"widgets"`
		Total   int                  `json:"total"`
	}
}

func RegisterCatalog(api humago.API, h *CatalogHandler) {
	humago.Register(api, humago.Operation{
		OperationID: "listWidgetCatalog",
		Method:      http.MethodGet,
		Path:        "/v1/widgets/catalog",
		Summary:     "List the widget catalog",
		Tags:        []string{"Widgets"},
	}, h.list)
}

func (h *CatalogHandler) list(ctx context.Context, p *catalogParams) (*catalogOut, error) {
	tid := tenant.FromContext(ctx)

	opt := regwidgets.Options{Tenant: tid, Type: p.Type, Q: p.Q, Limit: p.Limit, Offset: p.Offset}
	items, total, etag, last, err := h.Reg.List(ctx, opt)
	if err != nil {
		return nil, err
	}
	lastStr := last.UTC().Format(http.TimeFormat)
	if p.IfNoneMatch != "" && p.IfNoneMatch == etag {
		hdr := http.Header{}
		hdr.Set("ETag", etag)
		hdr.Set("Last-Modified", lastStr)
		return nil, humago.ErrorWithHeaders(humago.NewError(http.StatusNotModified, ""), hdr)
	}
	if !p.IfModifiedSince.IsZero() && !last.After(p.IfModifiedSince) {
		hdr := http.Header{}
		hdr.Set("ETag", etag)
		hdr.Set("Last-Modified", lastStr)
		return nil, humago.ErrorWithHeaders(humago.NewError(http.StatusNotModified, ""), hdr)
	}

	out := &catalogOut{ETag: etag, LastModified: lastStr}
	out.Body.Widgets = items
	out.Body.Total = total
	return out, nil
}

// Stream pushes catalog changes to the editor as server-sent events.
func (h *CatalogHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tid := tenant.FromContext(r.Context())
	logger.L.Info("widget catalog stream", "tenant", tid)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	ch, unsub := h.Reg.Subscribe()
	defer unsub()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				logger.L.Error("sse keepalive failed", "error", err)
				return
			}
			flusher.Flush()
		case ev := <-ch:
			if ev.Item != nil && ev.Item.TenantID != tid {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
				logger.L.Error("sse write failed", "error", err)
				return
			}
			var (
				b   []byte
				err error
			)
			if ev.Item != nil {
				b, err = json.Marshal(ev.Item)
			} else if ev.ID != "" {
				b, err = json.Marshal(map[string]string{"id": ev.ID})
			} else {
				b = []byte("{}")
			}
			if err != nil {
				logger.L.Error("sse marshal failed", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				logger.L.Error("sse write failed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
