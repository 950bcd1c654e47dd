// Package httpx writes the unified JSON envelope for gin handlers
package httpx

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-quota/errcode"
	"github.com/gin-gonic/gin"
)

// Response unified response format
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// OkJson successful response
func OkJson(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// ErrorResponse status and body for err.
// A LayeredError keeps its code, message, data and HTTP status; anything else is a 500.
func ErrorResponse(err error) (int, Response) {
	var le *errcode.LayeredError
	if errors.As(err, &le) {
		resp := Response{Code: le.Code(), Msg: le.Message()}
		if data := le.Data(); len(data) > 0 {
			resp.Data = data
		}
		return le.HTTPStatus(), resp
	}
	return http.StatusInternalServerError, Response{
		Code: http.StatusInternalServerError,
		Msg:  "internal server error",
	}
}

// AbortWithError writes ErrorResponse(err) and stops the handler chain
func AbortWithError(c *gin.Context, err error) {
	status, resp := ErrorResponse(err)
	c.AbortWithStatusJSON(status, resp)
}
