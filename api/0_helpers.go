package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fulldump/box"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/slotdb/api/apicollectionv1"
	"github.com/fulldump/slotdb/collection"
	"github.com/fulldump/slotdb/database"
	"github.com/fulldump/slotdb/densearray"
	"github.com/fulldump/slotdb/layout"
	"github.com/fulldump/slotdb/service"
)

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(p)
}

var ErrUnavailable = errors.New("temporary unavailable")

func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status == database.StatusOpening {
				box.SetError(ctx, fmt.Errorf("%w: opening", ErrUnavailable))
				return
			}
			if status == database.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: closing", ErrUnavailable))
				return
			}
			next(ctx)
		}
	}
}

type errorStatus struct {
	target      error
	status      int
	description string
}

// errorStatuses is walked in order; the first match wins.
var errorStatuses = []errorStatus{
	{ErrUnauthorized, http.StatusUnauthorized, "user is not authenticated"},
	{ErrUnavailable, http.StatusServiceUnavailable, "database is not operating"},
	{service.ErrorCollectionNotFound, http.StatusNotFound, "collection not found"},
	{densearray.ErrInvalidHandle, http.StatusNotFound, "handle does not name a live record"},
	{collection.ErrIndexNotFound, http.StatusNotFound, "index not found"},
	{service.ErrorCollectionAlreadyExists, http.StatusConflict, "collection already exists"},
	{collection.ErrIndexAlreadyExists, http.StatusConflict, "index already exists"},
	{collection.ErrIndexConflict, http.StatusConflict, "unique index violation"},
	{service.ErrorBadCollectionName, http.StatusBadRequest, "bad collection name"},
	{layout.ErrUnknownField, http.StatusBadRequest, "unknown field"},
	{layout.ErrFieldType, http.StatusBadRequest, "wrong field type"},
	{layout.ErrInvalid, http.StatusBadRequest, "invalid layout"},
	{collection.ErrIndexType, http.StatusBadRequest, "unknown index type"},
	{apicollectionv1.ErrBadRequest, http.StatusBadRequest, "bad request"},
	{collection.ErrDropped, http.StatusGone, "collection dropped"},
	{densearray.ErrDestroyed, http.StatusGone, "collection dropped"},
	{densearray.ErrAllocationFailure, http.StatusInsufficientStorage, "memory limit reached"},
}

func errorToStatus(err error) (int, string) {

	for _, item := range errorStatuses {
		if errors.Is(err, item.target) {
			return item.status, item.description
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, "Malformed JSON"
	}

	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	var syntacticError *jsontext.SyntacticError
	var semanticError *json2.SemanticError
	if errors.As(err, &syntaxError) || errors.As(err, &typeError) ||
		errors.As(err, &syntacticError) || errors.As(err, &semanticError) {
		return http.StatusBadRequest, "Malformed JSON"
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		if err == box.ErrResourceNotFound {
			w.WriteHeader(http.StatusNotFound)
			PrettyError{
				Message:     err.Error(),
				Description: fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String()),
			}.MarshalTo(w)
			return
		}

		if err == box.ErrMethodNotAllowed {
			w.WriteHeader(http.StatusMethodNotAllowed)
			PrettyError{
				Message:     err.Error(),
				Description: fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method),
			}.MarshalTo(w)
			return
		}

		status, description := errorToStatus(err)
		w.WriteHeader(status)
		PrettyError{
			Message:     err.Error(),
			Description: description,
		}.MarshalTo(w)
	}
}
