package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/calscan/internal/blob"
	"github.com/samcharles93/calscan/internal/logger"
	"github.com/samcharles93/calscan/internal/report"
	"github.com/samcharles93/calscan/internal/scanner"
	"github.com/samcharles93/calscan/pkg/lut"
)

// ScanDefaults apply when a request does not override them.
type ScanDefaults struct {
	Variants   []lut.Variant
	Leniency   lut.Leniency
	MaxAxisLen int
	// MaxUpload caps request bodies after decompression (0 = blob.DefaultMaxSize).
	MaxUpload int
}

type Server struct {
	store    *ScanStore
	defaults ScanDefaults
	log      logger.Logger
	clock    func() time.Time
	newID    func() string
}

func NewServer(store *ScanStore, defaults ScanDefaults, log logger.Logger) *Server {
	if store == nil {
		store = NewScanStore(0)
	}
	if len(defaults.Variants) == 0 {
		defaults.Variants = []lut.Variant{lut.Compact}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Server{
		store:    store,
		defaults: defaults,
		log:      log,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/scans", s.handleCreateScan)
	e.GET("/v1/scans", s.handleListScans)
	e.GET("/v1/scans/:id", s.handleGetScan)
	e.GET("/v1/scans/:id/lines", s.handleGetLines)
	e.DELETE("/v1/scans/:id", s.handleDeleteScan)
}

func (s *Server) handleCreateScan(c *echo.Context) error {
	opts, raw, err := s.scanOptions(c)
	if err != nil {
		return writeInvalid(c, err)
	}
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		name = "upload"
	}

	img, err := blob.Load(c.Request().Body, name, blob.Options{Raw: raw, MaxSize: s.defaults.MaxUpload})
	if err != nil {
		switch {
		case errors.Is(err, blob.ErrTooLarge):
			return writeError(c, http.StatusRequestEntityTooLarge, "invalid_request_error", err.Error(), "")
		case errors.Is(err, blob.ErrEmpty):
			return writeBadRequest(c, err.Error())
		default:
			return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
		}
	}
	defer func() { _ = img.Close() }()

	id := s.newID()
	log := s.log.With("scan_id", id)
	if img.SniffErr != nil {
		log.Debug("compression magic ignored", "detected", string(img.Sniffed), "error", img.SniffErr)
	}
	sc, err := scanner.New(opts)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	ctx := logger.WithContext(c.Request().Context(), log)
	rs, err := sc.Scan(ctx, img.Data)
	if err != nil {
		log.Warn("scan aborted", "error", err)
		return writeError(c, http.StatusServiceUnavailable, "server_error", "scan aborted: "+err.Error(), "")
	}

	doc := report.NewDocument(report.Meta{
		ScanID:      id,
		Input:       name,
		InputSize:   img.Len(),
		Compression: string(img.Compression),
		Variants:    opts.Variants,
		Leniency:    opts.Leniency,
	}, rs)
	var lines strings.Builder
	if err := report.WriteLines(&lines, rs.Candidates); err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "")
	}

	now := s.clock()
	s.store.Put(id, &scanRecord{Document: doc, Lines: lines.String(), CreatedAt: now})
	log.Info("scan stored", "input", name, "bytes", img.Len(), "tables", rs.Len())

	return writeJSON(c, http.StatusCreated, ScanResponse{
		Object:    "scan",
		CreatedAt: now.Unix(),
		Document:  doc,
	})
}

func (s *Server) handleListScans(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, ScanListResponse{Object: "list", Data: s.store.List()})
}

func (s *Server) handleGetScan(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "scan not found")
	}
	return writeJSON(c, http.StatusOK, ScanResponse{
		Object:    "scan",
		CreatedAt: rec.CreatedAt.Unix(),
		Document:  rec.Document,
	})
}

func (s *Server) handleGetLines(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "scan not found")
	}
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.WriteHeader(http.StatusOK)
	_, err := res.Write([]byte(rec.Lines))
	return err
}

func (s *Server) handleDeleteScan(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "scan not found")
	}
	return writeJSON(c, http.StatusOK, DeleteScanResponse{ID: id, Object: "scan", Deleted: true})
}

// scanOptions reads variant, leniency, start, max, max_axis and raw from the
// query string.
func (s *Server) scanOptions(c *echo.Context) (scanner.Options, bool, error) {
	opts := scanner.Options{
		Variants:   s.defaults.Variants,
		Leniency:   s.defaults.Leniency,
		MaxAxisLen: s.defaults.MaxAxisLen,
	}
	var err error
	if v := c.QueryParam("variant"); v != "" {
		if opts.Variants, err = lut.ParseVariants(v); err != nil {
			return opts, false, newInvalidRequest("variant", err.Error())
		}
	}
	if v := c.QueryParam("leniency"); v != "" {
		if opts.Leniency, err = lut.ParseLeniency(v); err != nil {
			return opts, false, newInvalidRequest("leniency", err.Error())
		}
	}
	if v := c.QueryParam("start"); v != "" {
		if opts.Start, err = scanner.ParseHexOffset(v); err != nil {
			return opts, false, newInvalidRequest("start", err.Error())
		}
	}
	if v := c.QueryParam("max"); v != "" {
		if opts.Limit, err = scanner.ParseHexOffset(v); err != nil {
			return opts, false, newInvalidRequest("max", err.Error())
		}
		opts.HasLimit = true
	}
	if v := c.QueryParam("max_axis"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 3 || n > lut.MaxAxisLen {
			return opts, false, newInvalidRequest("max_axis", fmt.Sprintf("must be an integer in [3, %d]", lut.MaxAxisLen))
		}
		opts.MaxAxisLen = n
	}
	raw := false
	if v := c.QueryParam("raw"); v != "" {
		if raw, err = strconv.ParseBool(v); err != nil {
			return opts, false, newInvalidRequest("raw", err.Error())
		}
	}
	return opts, raw, nil
}
