// Package httpapi — тонкий HTTP-слой над ядром допуска. Никакой бизнес-логики:
// разбор запроса, вызов ядра, перевод отказа в HTTP-статус и заголовки лимитера.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SauceFoong/slot-booking-system/internal/admission"
	"github.com/SauceFoong/slot-booking-system/internal/model"
	"github.com/SauceFoong/slot-booking-system/internal/outcome"
	"github.com/SauceFoong/slot-booking-system/internal/ratelimit"
)

// BookFunc — путь допуска: прямой вызов транзакции либо постановка в FCFS-очередь.
type BookFunc func(ctx context.Context, userID, slotID uuid.UUID) (*model.Booking, error)

type Handler struct {
	svc     *admission.Service
	book    BookFunc
	limiter *ratelimit.Limiter
}

func NewHandler(svc *admission.Service, book BookFunc, limiter *ratelimit.Limiter) *Handler {
	if book == nil {
		book = svc.Book
	}
	return &Handler{svc: svc, book: book, limiter: limiter}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/v1/bookings", h.createBooking)
	r.POST("/v1/bookings/:id/cancel", h.cancelBooking)
	r.POST("/v1/slots", h.publishSlot)
	r.DELETE("/v1/slots/:id", h.deleteSlot)
}

type bookingRequest struct {
	CallerID string `json:"caller_id" binding:"required,uuid"`
	SlotID   string `json:"slot_id" binding:"required,uuid"`
}

func (h *Handler) createBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, outcome.InvalidRequest("caller_id and slot_id must be valid uuids"))
		return
	}
	callerID := uuid.MustParse(req.CallerID)
	slotID := uuid.MustParse(req.SlotID)

	if h.limiter != nil {
		dec, err := h.limiter.Allow(c.Request.Context(), req.CallerID)
		if err != nil {
			// лимитер открывается при недоступности хранилища счётчиков
			log.Printf("httpapi: rate limiter failed open: %v", err)
		}
		setRateLimitHeaders(c, dec)
		if !dec.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(dec.RetryAfter.Seconds()+1)))
			writeRejection(c, outcome.RateLimited(
				"rate limit exceeded, retry after "+dec.RetryAfter.Round(time.Second).String()))
			return
		}
	}

	booking, err := h.book(c.Request.Context(), callerID, slotID)
	if err != nil {
		writeRejection(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
		"user_id":    booking.UserID,
		"status":     booking.Status,
	})
}

type cancelRequest struct {
	CallerID string `json:"caller_id" binding:"required,uuid"`
}

func (h *Handler) cancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeRejection(c, outcome.InvalidRequest("booking id must be a valid uuid"))
		return
	}
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, outcome.InvalidRequest("caller_id must be a valid uuid"))
		return
	}

	booking, err := h.svc.Cancel(c.Request.Context(), uuid.MustParse(req.CallerID), bookingID)
	if err != nil {
		writeRejection(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking_id": booking.ID,
		"status":     booking.Status,
	})
}

type publishSlotRequest struct {
	HostID   string    `json:"host_id" binding:"required,uuid"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	EndsAt   time.Time `json:"ends_at" binding:"required"`
}

func (h *Handler) publishSlot(c *gin.Context) {
	var req publishSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, outcome.InvalidRequest("host_id, starts_at and ends_at are required"))
		return
	}

	slot, err := h.svc.Publish(c.Request.Context(), uuid.MustParse(req.HostID), req.StartsAt, req.EndsAt)
	if err != nil {
		writeRejection(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"slot_id":   slot.ID,
		"host_id":   slot.HostID,
		"starts_at": slot.StartsAt,
		"ends_at":   slot.EndsAt,
		"status":    slot.Status,
	})
}

type deleteSlotRequest struct {
	HostID string `json:"host_id" binding:"required,uuid"`
}

func (h *Handler) deleteSlot(c *gin.Context) {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeRejection(c, outcome.InvalidRequest("slot id must be a valid uuid"))
		return
	}
	var req deleteSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeRejection(c, outcome.InvalidRequest("host_id must be a valid uuid"))
		return
	}

	slot, err := h.svc.Delete(c.Request.Context(), uuid.MustParse(req.HostID), slotID)
	if err != nil {
		writeRejection(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot_id": slot.ID,
		"status":  slot.Status,
	})
}

func setRateLimitHeaders(c *gin.Context, dec ratelimit.Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(dec.ResetAt.Unix(), 10))
}

// writeRejection переводит отказ ядра в HTTP-ответ {code, message}.
func writeRejection(c *gin.Context, err error) {
	r, ok := outcome.AsRejection(err)
	if !ok {
		log.Printf("httpapi: unexpected error: %v", err)
		r = outcome.Internal("internal error")
	}
	c.JSON(httpStatus(r.Code), gin.H{
		"code":    r.Code,
		"message": r.Message,
	})
}

func httpStatus(code outcome.Code) int {
	switch code {
	case outcome.CodeNotFound:
		return http.StatusNotFound
	case outcome.CodeInvalidRequest:
		return http.StatusBadRequest
	case outcome.CodeForbidden:
		return http.StatusForbidden
	case outcome.CodeConflict:
		return http.StatusConflict
	case outcome.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
