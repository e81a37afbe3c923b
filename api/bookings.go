package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gtickets/internal/backend"
	"gtickets/internal/domain"
	"gtickets/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type quoteRequest struct {
	Airline  string `json:"airline" binding:"required"`
	FlightID string `json:"flightId" binding:"required,uuid"`
	SeatID   string `json:"seatId" binding:"required,uuid"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/confirmQuotes", h.confirmQuotes)
	router.GET("/getBookings", h.getBookings)

	manager := router.Group("", RequireManager())
	manager.GET("/getAllBookings", h.getAllBookings)
	manager.GET("/getBestCustomers", h.getBestCustomers)
}

func (h *BookingHandler) confirmQuotes(c *gin.Context) {
	var req []quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quotes := make([]domain.Quote, 0, len(req))
	for _, q := range req {
		quotes = append(quotes, domain.Quote{Airline: q.Airline, FlightID: q.FlightID, SeatID: q.SeatID})
	}

	result, err := h.service.ConfirmQuotes(c.Request.Context(), quotes, principalFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "one or more seats are no longer available"})
		case errors.Is(err, backend.ErrUnknownAirline):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) getBookings(c *gin.Context) {
	bookings, err := h.service.GetBookings(c.Request.Context(), principalFrom(c).UID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) getAllBookings(c *gin.Context) {
	bookings, err := h.service.GetAllBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) getBestCustomers(c *gin.Context) {
	customers, err := h.service.GetBestCustomers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, customers)
}
