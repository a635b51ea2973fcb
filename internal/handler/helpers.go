package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"ravito/internal/apierror"
	"ravito/internal/middleware"
	"ravito/internal/service"
	"ravito/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// decimal.Decimal is validated as a number (min=0, gt=0, required).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Field errors are keyed by the JSON name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := validation.RegisterTags(validate); err != nil {
		panic(err)
	}
}

// bindAndValidate binds the JSON body and runs the validator tags. It writes
// the error response and returns false on failure.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalide: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindOptional is bindAndValidate for endpoints whose body may be omitted,
// leaving req at its zero value.
func bindOptional(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindAndValidate(c, req)
}

// writeError maps a service failure to its status code. Errors the services do
// not classify are logged and answered with the generic message.
func writeError(c *gin.Context, err error) {
	var incomplete *service.IncompleteSheetError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusUnprocessableEntity, apierror.NewMissing(incomplete.Error(), incomplete.Missing))
		return
	}

	var se *service.Error
	if errors.As(err, &se) {
		status := statusOf(se.Kind)
		if status >= http.StatusInternalServerError {
			logFailure(c, err)
		}
		c.JSON(status, apierror.New(se.Msg))
		return
	}

	logFailure(c, err)
	c.JSON(http.StatusInternalServerError, apierror.Internal())
}

func statusOf(kind error) int {
	switch {
	case errors.Is(kind, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, service.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(kind, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, service.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func logFailure(c *gin.Context, err error) {
	log.Error().
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Str("method", c.Request.Method).
		Err(err).
		Msg("request failed")
}

// actorFrom reads the authenticated caller from the JWT claims.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Authentification requise"))
		return service.Actor{}, false
	}
	userID, err1 := uuid.Parse(claims.UserID)
	orgID, err2 := uuid.Parse(claims.OrgID)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Jeton invalide ou expiré"))
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, OrgID: orgID, Role: claims.Role}, true
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Identifiant invalide: "+name))
		return uuid.Nil, false
	}
	return id, true
}

// intQuery reads an integer query parameter with a default value.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Paramètre invalide: "+name))
		return 0, false
	}
	return n, true
}

// attachment writes a downloadable file.
func attachment(c *gin.Context, contentType, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
