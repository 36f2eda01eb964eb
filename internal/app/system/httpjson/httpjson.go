// Package httpjson writes the JSON envelopes used by every API handler.
//
// Success bodies carry "success": true alongside the payload fields.
// Failures carry "success": false and an "error" object with the kind and a
// user-displayable message.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// M is a shorthand for ad-hoc response objects.
type M map[string]any

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 response. fields are merged into the envelope.
func OK(w http.ResponseWriter, fields M) {
	Write(w, http.StatusOK, withSuccess(fields))
}

// Created writes a 201 response.
func Created(w http.ResponseWriter, fields M) {
	Write(w, http.StatusCreated, withSuccess(fields))
}

func withSuccess(fields M) M {
	out := M{"success": true}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Error writes err as a JSON failure. *apperr.Error values are surfaced with
// their kind and message; any other error is logged and reported as a
// generic internal error.
func Error(w http.ResponseWriter, logger *zap.Logger, err error) {
	if ae, ok := apperr.As(err); ok {
		Write(w, apperr.HTTPStatus(ae.Kind), errorEnvelope{
			Error: errorBody{Kind: ae.Kind, Message: ae.Message},
		})
		return
	}
	if logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	Write(w, http.StatusInternalServerError, errorEnvelope{
		Error: errorBody{Kind: "internal", Message: "internal server error"},
	})
}

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON body of at most MaxBodyBytes into dst, rejecting
// unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperr.Validationf("request body exceeds %d bytes", tooBig.Limit)
		case errors.As(err, &syn):
			return apperr.Validation("request body is not valid JSON")
		case errors.As(err, &typ):
			return apperr.Validationf("field %q has the wrong type", typ.Field)
		default:
			return apperr.Validationf("invalid request body: %v", err)
		}
	}
	return nil
}

// ObjectIDParam parses the chi URL parameter name as an ObjectID. A
// malformed value is a validation error naming what.
func ObjectIDParam(r *http.Request, name, what string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validationf("invalid %s id", what)
	}
	return oid, nil
}
