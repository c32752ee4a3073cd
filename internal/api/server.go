// Package api serves the layout catalog over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/samcharles93/plum/internal/blob"
	"github.com/samcharles93/plum/internal/catalog"
	"github.com/samcharles93/plum/internal/logger"
	"github.com/samcharles93/plum/internal/version"
	"github.com/samcharles93/plum/pkg/plum"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 16 << 20

type Options struct {
	MaxBodyBytes int64
	Logger       logger.Logger
}

type Server struct {
	catalog *catalog.Catalog
	store   *InspectionStore
	log     logger.Logger
	maxBody int64
	clock   func() time.Time
}

func NewServer(cat *catalog.Catalog, store *InspectionStore, opts Options) *Server {
	if cat == nil {
		cat = catalog.Builtin()
	}
	if store == nil {
		store = NewInspectionStore(0)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Server{
		catalog: cat,
		store:   store,
		log:     opts.Logger.With("component", "api"),
		maxBody: opts.MaxBodyBytes,
		clock:   time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/version", s.handleVersion)

	e.GET("/v1/layouts", s.handleListLayouts)
	e.GET("/v1/layouts/:name", s.handleGetLayout)
	e.POST("/v1/layouts/:name/unpack", s.handleUnpack)
	e.POST("/v1/layouts/:name/pack", s.handlePack)

	e.GET("/v1/inspections", s.handleListInspections)
	e.GET("/v1/inspections/:id", s.handleGetInspection)
	e.DELETE("/v1/inspections/:id", s.handleDeleteInspection)
}

type layoutInfo struct {
	Name        string          `json:"name"`
	Object      string          `json:"object"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Size        *int            `json:"size"`
	Members     []string        `json:"members,omitempty"`
	Template    json.RawMessage `json:"template,omitempty"`
}

func describe(l catalog.Layout, withTemplate bool) layoutInfo {
	info := layoutInfo{
		Name:        l.Name,
		Object:      "layout",
		Description: l.Description,
		Type:        l.Type.Name(),
	}
	if n, ok := l.Size(); ok {
		info.Size = &n
	}
	if st, ok := l.Type.(*plum.StructType); ok {
		info.Members = st.Names()
	}
	if withTemplate {
		// Layouts with required members have no template.
		if em, ok := l.Type.(plum.Emptier); ok {
			if v, err := em.Empty(); err == nil {
				info.Template, _ = plum.MarshalValue(v)
			}
		}
	}
	return info
}

func (s *Server) handleVersion(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, version.Resolve())
}

func (s *Server) handleListLayouts(c *echo.Context) error {
	layouts := s.catalog.All()
	data := make([]layoutInfo, 0, len(layouts))
	for _, l := range layouts {
		data = append(data, describe(l, false))
	}
	return writeJSON(c, http.StatusOK, map[string]any{"object": "list", "data": data})
}

func (s *Server) handleGetLayout(c *echo.Context) error {
	l, err := s.catalog.Lookup(c.Param("name"))
	if err != nil {
		return writeError(c, err, "")
	}
	return writeJSON(c, http.StatusOK, describe(l, true))
}

func (s *Server) handleUnpack(c *echo.Context) error {
	name := c.Param("name")
	l, err := s.catalog.Lookup(name)
	if err != nil {
		return writeError(c, err, name)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return writeError(c, err, name)
	}
	if offset < 0 {
		return writeError(c, newInvalidRequest("offset must not be negative"), name)
	}
	strict, err := queryBool(c, "strict", false)
	if err != nil {
		return writeError(c, err, name)
	}
	withDump, err := queryBool(c, "dump", false)
	if err != nil {
		return writeError(c, err, name)
	}
	keep, err := queryBool(c, "store", true)
	if err != nil {
		return writeError(c, err, name)
	}

	body, err := blob.ReadLimited(c.Request().Body, s.maxBody)
	if err != nil {
		return writeError(c, err, name)
	}

	in := Inspection{
		CreatedAt: s.clock().Unix(),
		Layout:    name,
		Offset:    offset,
		Strict:    strict,
	}
	value, consumed, rec, uerr := unpackBody(l.Type, body, offset, strict)
	status := http.StatusOK
	if uerr != nil {
		status, in.Error = responseError(uerr, name)
		s.log.Warn("unpack failed", "layout", name, "error", in.Error.Message, "dump", in.Error.Dump)
	} else {
		in.Consumed = consumed
		if in.Value, err = plum.MarshalValue(value); err != nil {
			return writeError(c, err, name)
		}
		if withDump {
			in.Dump = rec.String()
			if in.Records, err = json.Marshal(rec); err != nil {
				return writeError(c, err, name)
			}
		}
		s.log.Debug("unpacked", "layout", name, "offset", offset, "consumed", consumed)
	}
	if keep {
		in = s.store.Put(in)
	}
	return writeJSON(c, status, in)
}

func unpackBody(t plum.Type, body []byte, offset int, strict bool) (plum.Value, int, *plum.Record, error) {
	if strict {
		window := body[min(offset, len(body)):]
		v, rec, err := plum.UnpackAndGetDump(t, window)
		if err != nil {
			return nil, 0, nil, err
		}
		return v, len(window), rec, nil
	}
	return plum.UnpackFromAndGetDump(t, body, offset)
}

func (s *Server) handlePack(c *echo.Context) error {
	name := c.Param("name")
	l, err := s.catalog.Lookup(name)
	if err != nil {
		return writeError(c, err, name)
	}
	withDump, err := queryBool(c, "dump", false)
	if err != nil {
		return writeError(c, err, name)
	}
	body, err := blob.ReadLimited(c.Request().Body, s.maxBody)
	if err != nil {
		return writeError(c, err, name)
	}
	value, err := plum.UnmarshalValue(l.Type, body)
	if err != nil {
		return writeError(c, newInvalidRequest(err.Error()), name)
	}
	packed, rec, err := plum.PackAndGetDump(l.Type, value)
	if err != nil {
		s.log.Warn("pack failed", "layout", name, "error", plum.Summary(err))
		return writeError(c, err, name)
	}
	if !withDump {
		return c.Blob(http.StatusOK, echo.MIMEOctetStream, packed)
	}
	return writeJSON(c, http.StatusOK, map[string]any{
		"object": "packed",
		"layout": name,
		"size":   len(packed),
		"bytes":  packed,
		"dump":   rec.String(),
	})
}

func (s *Server) handleListInspections(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]any{"object": "list", "data": s.store.List()})
}

func (s *Server) handleGetInspection(c *echo.Context) error {
	in, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "inspection not found")
	}
	return writeJSON(c, http.StatusOK, in)
}

func (s *Server) handleDeleteInspection(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "inspection not found")
	}
	return writeJSON(c, http.StatusOK, map[string]any{"id": id, "object": "inspection.deleted", "deleted": true})
}
