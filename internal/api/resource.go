package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"birdwatch/internal/projection"
	"birdwatch/internal/views"
)

// resource binds one record type to its service calls. T is the domain
// record and In the service's input struct.
type resource[T any, In any] struct {
	name   string
	list   func(context.Context) ([]T, error)
	get    func(context.Context, int64) (*T, error)
	create func(context.Context, In) (*T, error)
	update func(context.Context, int64, In) (*T, error)
	remove func(context.Context, int64) error
}

// route registers the CRUD routes for res under prefix. The view is
// resolved before any write so an unknown view never half-applies a request.
func route[T any, In any](mux *http.ServeMux, prefix string, s *Server, res resource[T, In]) {
	serializer := func(w http.ResponseWriter, r *http.Request) (*projection.Serializer[T], bool) {
		ser, err := views.For[T](s.views.Catalog(), res.name, r.URL.Query().Get("view"))
		if err != nil {
			s.fail(w, r, err)
			return nil, false
		}
		return ser, true
	}
	one := func(w http.ResponseWriter, r *http.Request, ser *projection.Serializer[T], status int, rec *T) {
		obj, err := ser.Serialize(r.Context(), *rec)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, status, obj)
	}

	mux.HandleFunc("GET "+prefix, func(w http.ResponseWriter, r *http.Request) {
		ser, ok := serializer(w, r)
		if !ok {
			return
		}
		list, err := res.list(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out, err := ser.SerializeAll(r.Context(), list)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		ser, ok := serializer(w, r)
		if !ok {
			return
		}
		rec, err := res.get(r.Context(), id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		one(w, r, ser, http.StatusOK, rec)
	})

	mux.HandleFunc("POST "+prefix, func(w http.ResponseWriter, r *http.Request) {
		ser, ok := serializer(w, r)
		if !ok {
			return
		}
		var in In
		if !decode(w, r, &in) {
			return
		}
		rec, err := res.create(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		one(w, r, ser, http.StatusCreated, rec)
	})

	mux.HandleFunc("PATCH "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		ser, ok := serializer(w, r)
		if !ok {
			return
		}
		var in In
		if !decode(w, r, &in) {
			return
		}
		rec, err := res.update(r.Context(), id, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		one(w, r, ser, http.StatusOK, rec)
	})

	mux.HandleFunc("DELETE "+prefix+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := res.remove(r.Context(), id); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(r.PathValue("id")))
		return 0, false
	}
	return id, true
}

// decode reads a JSON body, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
