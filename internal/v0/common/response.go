package common

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the request ID in and out of the API
	HeaderRequestID = "X-Request-ID"

	contextKeyRequestID = "request_id"
	apiVersion          = "v0"
)

// Structs for the API response format

type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	RequestID string    `json:"requestId"`
}

type APIResponse struct {
	Data     interface{} `json:"data"`
	Errors   []string    `json:"errors"`
	Metadata Metadata    `json:"metadata"`
}

// Response functions

func CreateAPIResponse(data interface{}, errors []string, requestID string) APIResponse {
	// If the requestID is blank and not cascading from other functions generate a new one
	if requestID == "" {
		requestID = uuid.New().String()
	}
	if errors == nil {
		errors = []string{}
	}
	return APIResponse{
		Data:   data,
		Errors: errors,
		Metadata: Metadata{
			Timestamp: time.Now(),
			Version:   apiVersion,
			RequestID: requestID,
		},
	}
}

func CreateSuccessResponse(data interface{}) APIResponse {
	return CreateAPIResponse(data, []string{}, "")
}

func CreateErrorResponse(errors []string) APIResponse {
	return CreateAPIResponse(nil, errors, "")
}

// RequestID accepts the client's X-Request-ID or mints one, so the id in the
// response envelope matches the one in the logs
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom returns the request ID set by RequestID, or ""
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

// Success writes data in the envelope
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, CreateAPIResponse(data, nil, RequestIDFrom(c)))
}

// Fail writes the errors in the envelope
func Fail(c *gin.Context, status int, errs ...string) {
	c.JSON(status, CreateAPIResponse(nil, errs, RequestIDFrom(c)))
}

// FailWithData writes errors together with a payload describing them
func FailWithData(c *gin.Context, status int, data interface{}, errs ...string) {
	c.JSON(status, CreateAPIResponse(data, errs, RequestIDFrom(c)))
}

// Abort is Fail for middleware
func Abort(c *gin.Context, status int, errs ...string) {
	c.AbortWithStatusJSON(status, CreateAPIResponse(nil, errs, RequestIDFrom(c)))
}

/*
This project is the backend API for the campus mess meal-selection service. Students pick their meals for each selection period within the mess quotas, and admins manage the catalog, periods and accounts.
MessAPI Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
