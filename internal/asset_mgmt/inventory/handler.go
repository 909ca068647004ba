package inventory

import (
	"crypto/rand"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"assetmanagement/internal/platform/db"
	"assetmanagement/internal/platform/notify"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func RegisterRoutes(r gin.IRouter, svc *Service, admin gin.HandlerFunc, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, log: log}

	// borrowers
	r.GET("/borrowers", h.ListBorrowers)
	r.POST("/borrowers", h.AddBorrower)
	r.DELETE("/borrowers/:name", admin, h.DeactivateBorrower)

	// assets
	r.GET("/assets", h.ListAssets)
	r.GET("/assets/:name", h.GetAsset)
	r.POST("/assets", admin, h.AddAsset)
	r.POST("/assets/:name/removals", admin, h.RemoveAsset)
	r.PATCH("/assets/:name/instock", admin, h.ModifyInstock)

	// loans
	r.GET("/loans", h.ListLoans)
	r.POST("/loans", h.Borrow)
	r.POST("/loans/returns", h.Return)

	// change stream
	r.GET("/events", h.Stream)
}

// ---------- borrowers ----------

func (h *Handler) ListBorrowers(c *gin.Context) {
	names, err := h.svc.BorrowerNames(c.Request.Context(), queryBool(c, "active_only"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, BorrowerNamesResponse{Names: names})
}

func (h *Handler) AddBorrower(c *gin.Context) {
	var req AddBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	if err := h.svc.AddBorrower(c.Request.Context(), *req.Name); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeactivateBorrower(c *gin.Context) {
	if err := h.svc.DeactivateBorrower(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------- assets ----------

func (h *Handler) ListAssets(c *gin.Context) {
	f := AssetFilter{
		ActiveOnly:  queryBool(c, "active_only"),
		InstockOnly: queryBool(c, "instock_only"),
	}
	assets, err := h.svc.Assets(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	res := make([]AssetResponse, 0, len(assets))
	for _, a := range assets {
		res = append(res, toAssetResponse(a))
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetAsset(c *gin.Context) {
	a, err := h.svc.Asset(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(*a))
}

func (h *Handler) AddAsset(c *gin.Context) {
	var req AddAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	if err := h.svc.AddAsset(c.Request.Context(), *req.Name, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.respondAsset(c, *req.Name, http.StatusCreated)
}

func (h *Handler) RemoveAsset(c *gin.Context) {
	var req RemoveAssetRequest
	// an empty body removes everything
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	name := c.Param("name")
	if err := h.svc.RemoveAsset(c.Request.Context(), name, req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	h.respondAsset(c, name, http.StatusOK)
}

func (h *Handler) ModifyInstock(c *gin.Context) {
	var req ModifyInstockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	name := c.Param("name")
	if err := h.svc.ModifyAssetInstock(c.Request.Context(), name, req.Delta); err != nil {
		h.fail(c, err)
		return
	}
	h.respondAsset(c, name, http.StatusOK)
}

func (h *Handler) respondAsset(c *gin.Context, name string, status int) {
	a, err := h.svc.Asset(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, toAssetResponse(*a))
}

// ---------- loans ----------

// ?borrower= filters on the empty name; no key means no filter.
func (h *Handler) ListLoans(c *gin.Context) {
	var f LoanFilter
	if v, ok := c.GetQuery("borrower"); ok {
		f.Borrower = &v
	}
	if v, ok := c.GetQuery("asset"); ok {
		f.Asset = &v
	}
	f.ActiveOnly = queryBool(c, "active_only")
	f.OverdueOnly = queryBool(c, "overdue_only")

	loans, err := h.svc.Loans(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	res := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		res = append(res, toLoanResponse(l))
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	due, err := db.ParseDate(req.DateDue)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid datedue format, expected YYYY-MM-DD"))
		return
	}
	loan, err := h.svc.BorrowAsset(c.Request.Context(), *req.Borrower, *req.Asset, req.Quantity, due)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/loans?borrower="+*req.Borrower)
	c.JSON(http.StatusCreated, LoanResponse{
		ID:       loan.ID,
		Borrower: *req.Borrower,
		Asset:    *req.Asset,
		Quantity: loan.Quantity,
		DateDue:  loan.DateDue,
	})
}

func (h *Handler) Return(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	n, err := h.svc.ReturnAsset(c.Request.Context(), *req.Borrower, *req.Asset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ReturnResponse{Borrower: *req.Borrower, Asset: *req.Asset, Restored: n})
}

// ---------- change stream ----------

// Stream: one SSE per committed mutation.
func (h *Handler) Stream(c *gin.Context) {
	ch := make(chan Operation, 64)
	unsubscribe := h.subscribeAll(ch)
	defer unsubscribe()

	entropy := ulid.Monotonic(rand.Reader, 0)
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case op := <-ch:
			id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
			c.Render(-1, sse.Event{Id: id.String(), Event: string(op), Data: string(op)})
			return true
		case <-keepAlive.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			return true
		}
	})
}

func (h *Handler) subscribeAll(ch chan<- Operation) func() {
	type sub struct {
		op Operation
		id notify.Subscription
	}
	events := h.svc.Events()
	subs := make([]sub, 0, len(Operations))
	for _, op := range Operations {
		op := op
		id := events.Of(op).Subscribe(func() {
			select {
			case ch <- op:
			default:
				h.log.Warn("event stream full, dropping event", zap.String("operation", string(op)))
			}
		})
		subs = append(subs, sub{op: op, id: id})
	}
	return func() {
		for _, s := range subs {
			events.Of(s.op).Unsubscribe(s.id)
		}
	}
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("inventory request failed", zap.Error(err))
		c.JSON(status, errorBody(CodeInternal, "internal error"))
		return
	}
	var e *Error
	errors.As(err, &e)
	c.JSON(status, errorBody(e.Code, e.Message))
}

func queryBool(c *gin.Context, key string) bool {
	v := c.Query(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
