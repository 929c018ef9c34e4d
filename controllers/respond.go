package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"banquito/services"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// errorResponse is the uniform error envelope
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps a service error onto an HTTP status. Validation failures
// become 400 with the offending fields listed; business errors follow the
// service taxonomy; everything else is a 500 with the detail withheld.
func writeError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationMessage(validationErrors)})
		return
	}

	switch services.KindOf(err) {
	case services.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case services.KindInvalidState, services.KindConstraintViolation:
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case services.KindCapacityExceeded:
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case services.KindUnauthorized:
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

// writeBadRequest sends a 400 with the given message
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// validationMessage flattens validator errors into one readable line
func validationMessage(errs validator.ValidationErrors) string {
	var messages []string
	for _, e := range errs {
		switch e.Tag() {
		case "required":
			messages = append(messages, "field "+e.Field()+" is required")
		case "min":
			messages = append(messages, "field "+e.Field()+" must be at least "+e.Param())
		case "max":
			messages = append(messages, "field "+e.Field()+" must be at most "+e.Param())
		case "gte":
			messages = append(messages, "field "+e.Field()+" must be >= "+e.Param())
		case "lte":
			messages = append(messages, "field "+e.Field()+" must be <= "+e.Param())
		case "email":
			messages = append(messages, "field "+e.Field()+" must be a valid email")
		case "oneof":
			messages = append(messages, "field "+e.Field()+" must be one of: "+e.Param())
		default:
			messages = append(messages, "field "+e.Field()+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}

// pathID extracts the numeric {id} variable from the route
func pathID(r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, errors.New("invalid id in path")
	}
	return uint(id), nil
}

// queryInt reads an integer query parameter, 0 when absent or malformed
func queryInt(r *http.Request, name string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return value
}

// queryUint reads an unsigned query parameter, 0 when absent or malformed
func queryUint(r *http.Request, name string) uint {
	value, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 32)
	if err != nil {
		return 0
	}
	return uint(value)
}
