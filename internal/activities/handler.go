package activities

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/trainingstats/internal/telemetry/tracing"
	"github.com/2beens/trainingstats/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type TotalDistanceResponse struct {
	TotalDistance float64 `json:"total_distance"`
}

type AveragePaceResponse struct {
	AveragePace *float64 `json:"average_pace"`
}

type Handler struct {
	analyzer *Analyzer
}

func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{
		analyzer: analyzer,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/activities/count/last_30_days", h.HandleCountLast30Days).Methods("GET", "OPTIONS").Name("activities-count")
	r.HandleFunc("/activities/last_n_days/{n}", h.HandleLastNDays).Methods("GET", "OPTIONS").Name("activities-recent")
	r.HandleFunc("/activities/total_distance/last_n_days/{n}", h.HandleTotalDistance).Methods("GET", "OPTIONS").Name("activities-total-distance")
	r.HandleFunc("/activities/average_pace/last_n_days/{n}", h.HandleAveragePace).Methods("GET", "OPTIONS").Name("activities-average-pace")
	r.HandleFunc("/activities/weekly_mileage_trend", h.HandleWeeklyMileageTrend).Methods("GET", "OPTIONS").Name("activities-weekly-trend")
	r.HandleFunc("/activities/details/{activity_id}", h.HandleDetails).Methods("GET", "OPTIONS").Name("activities-details")
	r.HandleFunc("/activities/best_efforts", h.HandleBestEfforts).Methods("GET", "OPTIONS").Name("activities-best-efforts")
}

func (h *Handler) HandleCountLast30Days(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.countLast30Days")
	defer span.End()

	counts, err := h.analyzer.CountByDay(ctx, CountWindowDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) HandleLastNDays(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.lastNDays")
	defer span.End()

	days, err := pathInt(r, "n")
	if err != nil {
		http.Error(w, "invalid number of days", http.StatusBadRequest)
		return
	}

	recent, err := h.analyzer.ListRecent(ctx, days)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, recent)
}

func (h *Handler) HandleTotalDistance(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.totalDistance")
	defer span.End()

	days, err := pathInt(r, "n")
	if err != nil {
		http.Error(w, "invalid number of days", http.StatusBadRequest)
		return
	}

	total, err := h.analyzer.TotalDistance(ctx, days)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, TotalDistanceResponse{TotalDistance: total})
}

func (h *Handler) HandleAveragePace(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.averagePace")
	defer span.End()

	days, err := pathInt(r, "n")
	if err != nil {
		http.Error(w, "invalid number of days", http.StatusBadRequest)
		return
	}

	pace, err := h.analyzer.AveragePace(ctx, days)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, AveragePaceResponse{AveragePace: pace})
}

func (h *Handler) HandleWeeklyMileageTrend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.weeklyMileageTrend")
	defer span.End()

	trend, err := h.analyzer.WeeklyMileageTrend(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, trend)
}

func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.details")
	defer span.End()

	idStr := mux.Vars(r)["activity_id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid activity id", http.StatusBadRequest)
		return
	}

	activity, err := h.analyzer.ActivityDetail(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, activity)
}

func (h *Handler) HandleBestEfforts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "activitiesHandler.bestEfforts")
	defer span.End()

	best, err := h.analyzer.BestEfforts(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, best)
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

// writeError is the only place where error kinds become HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "activity not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrQuery):
		log.Errorf("%s %s: query contract violated: %s", r.Method, r.URL.Path, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	default:
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
