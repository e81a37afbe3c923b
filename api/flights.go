package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gtickets/internal/backend"
	"gtickets/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/getFlights", h.getFlights)
	router.GET("/getFlight", h.getFlight)
	router.GET("/getFlightTimes", h.getFlightTimes)
	router.GET("/getAvailableSeats", h.getAvailableSeats)
	router.GET("/getSeat", h.getSeat)
}

func (h *FlightHandler) getFlights(c *gin.Context) {
	result, err := h.service.GetFlights(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *FlightHandler) getFlight(c *gin.Context) {
	airline, flightID := c.Query("airline"), c.Query("flightId")
	if airline == "" || flightID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "airline and flightId are required"})
		return
	}
	flight, err := h.service.GetFlight(c.Request.Context(), airline, flightID)
	if err != nil {
		status(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) getFlightTimes(c *gin.Context) {
	airline, flightID := c.Query("airline"), c.Query("flightId")
	if airline == "" || flightID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "airline and flightId are required"})
		return
	}
	times, err := h.service.GetFlightTimes(c.Request.Context(), airline, flightID)
	if err != nil {
		status(c, err)
		return
	}
	c.JSON(http.StatusOK, times)
}

func (h *FlightHandler) getAvailableSeats(c *gin.Context) {
	airline, flightID, flightTime := c.Query("airline"), c.Query("flightId"), c.Query("time")
	if airline == "" || flightID == "" || flightTime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "airline, flightId and time are required"})
		return
	}
	seats, err := h.service.GetAvailableSeats(c.Request.Context(), airline, flightID, flightTime)
	if err != nil {
		status(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

func (h *FlightHandler) getSeat(c *gin.Context) {
	airline, flightID, seatID := c.Query("airline"), c.Query("flightId"), c.Query("seatId")
	if airline == "" || flightID == "" || seatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "airline, flightId and seatId are required"})
		return
	}
	seat, err := h.service.GetSeat(c.Request.Context(), airline, flightID, seatID)
	if err != nil {
		status(c, err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

func status(c *gin.Context, err error) {
	switch {
	case errors.Is(err, backend.ErrUnknownAirline):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, backend.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
