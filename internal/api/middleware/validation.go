package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "whisper-relay/internal/api/errors"
)

// ValidateRequest binds the JSON body into req and checks its binding tags
func ValidateRequest(c *gin.Context, req interface{}) error {
	return bindingError(c.ShouldBindWith(req, binding.JSON), "invalid JSON format")
}

// ValidateForm binds a multipart form into req and checks its binding tags
func ValidateForm(c *gin.Context, req interface{}) error {
	return bindingError(c.ShouldBindWith(req, binding.FormMultipart), "invalid multipart form")
}

func bindingError(err error, malformed string) error {
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierrors.NewBadRequestError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apierrors.NewBadRequestError(malformed)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fieldError := range validationErrs {
		field := strings.ToLower(fieldError.Field())

		switch fieldError.Tag() {
		case "required":
			problems = append(problems, field+" is required")
		case "max":
			problems = append(problems, field+" is too long")
		case "alpha", "alphanum":
			problems = append(problems, field+" contains invalid characters")
		default:
			problems = append(problems, field+" is invalid")
		}
	}
	sort.Strings(problems)
	return apierrors.NewBadRequestError("Validation failed: " + strings.Join(problems, ", "))
}
