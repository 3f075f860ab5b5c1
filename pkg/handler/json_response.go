package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/paydesk/console/pkg/validator"
)

// JSONResponse is the envelope of every JSON body.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON wraps v in the data envelope with status 200.
func JSON(v any) Response {
	return jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
}

// JSONStatus is JSON with a custom status.
func JSONStatus(status int, v any) Response {
	return jsonResponse{status: status, body: JSONResponse{Data: v}}
}

// JSONError renders err in the error envelope. Validation errors become 422
// with per-field details; HTTPError keeps its code.
func JSONError(err error) Response {
	status, detail := errorDetail(err)
	return jsonResponse{status: status, body: JSONResponse{Error: detail}}
}

func errorDetail(err error) (int, *ErrorDetail) {
	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
		d := &ErrorDetail{
			Code:    "validation_error",
			Message: "Validation failed",
			Details: make(map[string][]string),
		}
		for _, field := range verrs.Fields() {
			d.Details[field] = verrs.Get(field)
		}
		return http.StatusUnprocessableEntity, d
	}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{Code: httpErr.Key, Message: httpErr.Message()}
	}
	return http.StatusInternalServerError, &ErrorDetail{Code: ErrInternal.Key, Message: ErrInternal.Message()}
}
