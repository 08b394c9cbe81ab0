package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                 = 0
	CodeBadRequest         = 40000
	CodeUnauthorized       = 40100
	CodeForbidden          = 40300
	CodeInternalServer     = 50000
	CodeUsernameExists     = 40001
	CodeEmailExists        = 40002
	CodeInvalidCredentials = 40101
	CodeSessionNotFound    = 40401
	CodeCrisisNotFound     = 40402
	CodeTherapistNotFound  = 40403
	CodeResourceNotFound   = 40404
	CodeRecipientNotFound  = 40405
	CodeConsentRequired    = 40901
	CodeSendInProgress     = 40902
	CodeRateLimited        = 42900
	CodeLLMConfig          = 50001
	CodeHistoryLoad        = 50002
	CodeCompletionFailed   = 50200
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}

// ErrorWithData is Error plus a payload the client still needs on failure.
func ErrorWithData(c *gin.Context, httpStatus, code int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}
