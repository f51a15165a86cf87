package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/taxdeedflow/comps-cli/internal/bid"
	"github.com/taxdeedflow/comps-cli/internal/lien"
	"github.com/taxdeedflow/comps-cli/internal/model"
	"github.com/taxdeedflow/comps-cli/internal/store"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

type errorBody struct {
	Error  string                 `json:"error,omitempty"`
	Errors model.ValidationErrors `json:"errors,omitempty"`
}

type validateResponse struct {
	Valid  bool                   `json:"valid"`
	Errors model.ValidationErrors `json:"errors"`
}

type listResponse struct {
	Recommendations []model.BidRecommendation `json:"recommendations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req valuation.AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req valuation.PropertyRequest
	if !decode(w, r, &req) {
		return
	}
	ev, err := s.svc.Evaluate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleTitleRisk(w http.ResponseWriter, r *http.Request) {
	var in lien.Input
	if !decode(w, r, &in) {
		return
	}
	res, err := s.svc.AssessTitle(in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCreateBid(w http.ResponseWriter, r *http.Request) {
	var in model.BidRecommendationInput
	if !decode(w, r, &in) {
		return
	}
	rec, err := s.svc.Recommend(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleValidateBid(w http.ResponseWriter, r *http.Request) {
	var in model.BidRecommendationInput
	if !decode(w, r, &in) {
		return
	}
	errs := bid.ValidateInput(in)
	if errs == nil {
		errs = model.ValidationErrors{}
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: len(errs) == 0, Errors: errs})
}

func (s *Server) handleGetBid(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Recommendation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListBids(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RecommendationFilter{PropertyID: q.Get("property_id")}
	var errs model.ValidationErrors
	params := []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	}
	for _, p := range params {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			errs = append(errs, model.ValidationError{Field: p.name, Message: "must be a non-negative integer"})
			continue
		}
		*p.dst = v
	}
	if len(errs) > 0 {
		writeError(w, r, errs)
		return
	}

	recs, err := s.svc.Recommendations(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.BidRecommendation{}
	}
	writeJSON(w, http.StatusOK, listResponse{Recommendations: recs})
}

// decode reads a JSON body, rejecting unknown fields. It writes a 400 and
// returns false on failure. A value of the wrong JSON type is reported
// against its field path.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Errors: model.ValidationErrors{decodeError(err)}})
		return false
	}
	return true
}

func decodeError(err error) model.ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.ValidationError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be %s, got %s", jsonKind(typeErr.Type), typeErr.Value),
		}
	}
	return model.ValidationError{Field: "body", Message: err.Error()}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Struct, reflect.Map:
		return "an object"
	default:
		return "a " + t.String()
	}
}

// writeError maps domain errors to status codes: validation 400, missing
// record 404, insufficient data 422, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := zap.L().With(
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
	)

	if ve, ok := model.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Errors: ve})
		return
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case model.IsInsufficientData(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case model.IsCalculation(err):
		log.Error("calculation error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "calculation error"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}
