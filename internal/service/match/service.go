package match

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/doemee-app/match-engine/internal/app"
	"github.com/doemee-app/match-engine/internal/db"
	svcErr "github.com/doemee-app/match-engine/internal/errors"
	"github.com/doemee-app/match-engine/internal/notify"
	"github.com/doemee-app/match-engine/internal/profile"
	"github.com/doemee-app/match-engine/internal/repository"
	"github.com/doemee-app/match-engine/internal/retrieval"
	"github.com/doemee-app/match-engine/internal/scoring"
)

const defaultListLimit = 20

var validate = validator.New()

// Service implements the matching HTTP API: ranked candidate
// retrieval, the swipe/match state machine and the unranked vacancy
// listing. Business logic sits on top of the repository, retrieval
// and cache layers.
type Service struct {
	appCtx   *app.AppContext
	swipes   *repository.SwipeRepository
	matches  *repository.MatchRepository
	catalog  *repository.CatalogRepository
	pipeline *retrieval.Pipeline
}

// NewService creates the matching service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	catalog := repository.NewCatalogRepository(appCtx.DB)
	swipes := repository.NewSwipeRepository(appCtx.DB)
	return &Service{
		appCtx:  appCtx,
		swipes:  swipes,
		matches: repository.NewMatchRepository(appCtx.DB),
		catalog: catalog,
		pipeline: retrieval.New(
			catalog,
			swipes,
			appCtx.Embeddings,
			appCtx.Weights,
			appCtx.RedisCache,
			appCtx.Logger,
			appCtx.Config.Matching.StageOneK,
		),
	}
}

// Pipeline exposes the retrieval pipeline, for tests that need to
// pin its clock.
func (s *Service) Pipeline() *retrieval.Pipeline { return s.pipeline }

//
// ranking surface
//

type vacancyItem struct {
	ID         uint64            `json:"id"`
	OrgID      uint64            `json:"orgId"`
	Title      string            `json:"title"`
	Skills     profile.StringSet `json:"skills"`
	Categories profile.StringSet `json:"categories"`
	Remote     bool              `json:"remote"`
	CreatedAt  time.Time         `json:"createdAt"`
	MatchScore *scoring.Result   `json:"matchScore"`
}

type volunteerItem struct {
	ID         uint64            `json:"id"`
	Name       string            `json:"name"`
	Skills     profile.StringSet `json:"skills"`
	Interests  profile.StringSet `json:"interests"`
	MatchScore *scoring.Result   `json:"matchScore"`
}

// HandleRecommendations returns active vacancies ranked for a
// volunteer, each annotated with its score breakdown.
func (s *Service) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := pathID(r, "id")
	if err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("volunteer id must be a valid uint64"))
		return
	}
	s.appCtx.Logger.Debug("recommendations requested", "volunteer_id", volunteerID)

	ranked, err := s.pipeline.VacanciesForVolunteer(r.Context(), volunteerID, queryLimit(r))
	if err != nil {
		s.appCtx.Logger.Error("ranking failed", "volunteer_id", volunteerID, "err", err)
		svcErr.WriteHTTP(w, err)
		return
	}

	items := make([]vacancyItem, 0, len(ranked))
	for _, rv := range ranked {
		score := rv.Score
		items = append(items, vacancyItem{
			ID:         rv.Vacancy.ID,
			OrgID:      rv.Vacancy.OrgID,
			Title:      rv.Vacancy.Title,
			Skills:     rv.Vacancy.Skills,
			Categories: rv.Vacancy.Categories,
			Remote:     rv.Vacancy.Remote,
			CreatedAt:  rv.Vacancy.CreatedAt,
			MatchScore: &score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vacancies": items})
}

// HandleCandidates returns eligible volunteers ranked for a vacancy.
func (s *Service) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	vacancyID, err := pathID(r, "id")
	if err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("vacancy id must be a valid uint64"))
		return
	}

	ranked, err := s.pipeline.VolunteersForVacancy(r.Context(), vacancyID, queryLimit(r))
	if err != nil {
		s.appCtx.Logger.Error("candidate ranking failed", "vacancy_id", vacancyID, "err", err)
		svcErr.WriteHTTP(w, err)
		return
	}

	items := make([]volunteerItem, 0, len(ranked))
	for _, rv := range ranked {
		score := rv.Score
		items = append(items, volunteerItem{
			ID:         rv.Volunteer.ID,
			Name:       rv.Volunteer.Name,
			Skills:     rv.Volunteer.Skills,
			Interests:  rv.Volunteer.Interests,
			MatchScore: &score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"volunteers": items})
}

// HandleListVacancies is the unranked listing mode: no target
// volunteer, so matchScore is null. Cursor-paginated, newest first.
func (s *Service) HandleListVacancies(w http.ResponseWriter, r *http.Request) {
	var token *string
	if t := r.URL.Query().Get("paginationToken"); t != "" {
		token = &t
	}

	vacancies, nextToken, err := s.catalog.ListVacanciesPage(r.Context(), token, queryLimit(r))
	if err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument(err.Error()))
		return
	}

	items := make([]vacancyItem, 0, len(vacancies))
	for _, vac := range vacancies {
		items = append(items, vacancyItem{
			ID:         vac.ID,
			OrgID:      vac.OrgID,
			Title:      vac.Title,
			Skills:     vac.Skills,
			Categories: vac.Categories,
			Remote:     vac.Remote,
			CreatedAt:  vac.CreatedAt,
			MatchScore: nil,
		})
	}

	resp := map[string]interface{}{"vacancies": items}
	if nextToken != nil {
		resp["nextPaginationToken"] = *nextToken
	}
	writeJSON(w, http.StatusOK, resp)
}

//
// swipe/match state machine
//

type swipeRequest struct {
	VolunteerID uint64   `json:"volunteerId" validate:"required"`
	VacancyID   uint64   `json:"vacancyId" validate:"required"`
	Direction   string   `json:"direction" validate:"required,oneof=LIKE DISLIKE SUPER_LIKE"`
	MatchReason string   `json:"matchReason" validate:"omitempty,max=64"`
	Score       *float64 `json:"score" validate:"omitempty,min=0,max=100"`
}

type swipeResponse struct {
	Matched    bool    `json:"matched"`
	MatchID    *string `json:"matchId,omitempty"`
	Status     *string `json:"status,omitempty"`
	StreakDays int     `json:"streakDays"`
}

// HandlePutSwipe records a volunteer's decision on a vacancy.
//
// Behavior:
//  1. Upserts the swipe (idempotent, last writer wins on content).
//  2. For LIKE/SUPER_LIKE, ensures a match exists (first writer
//     wins; an existing match's status is untouched).
//  3. Applies the calendar-day streak rule.
//  4. Fires the matched-notification intent best-effort; its failure
//     never reaches this response.
func (s *Service) HandlePutSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("invalid request payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument(err.Error()))
		return
	}
	liked := req.Direction == db.DirectionLike || req.Direction == db.DirectionSuperLike
	if liked && req.MatchReason == "" {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("matchReason is required for LIKE and SUPER_LIKE swipes"))
		return
	}

	s.appCtx.Logger.Debug("swipe received",
		"volunteer_id", req.VolunteerID, "vacancy_id", req.VacancyID, "direction", req.Direction)

	ctx := r.Context()

	vol, err := s.catalog.GetVolunteer(ctx, req.VolunteerID)
	if err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}
	vac, err := s.catalog.GetVacancy(ctx, req.VacancyID)
	if err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}

	if err := s.swipes.UpsertSwipe(ctx, req.VolunteerID, req.VacancyID, req.Direction, req.MatchReason, req.Score); err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}

	// swipe-volume counters: durable column first, cache best-effort
	orgID, err := s.catalog.IncrementSwipeVolume(ctx, req.VacancyID)
	if err != nil {
		s.appCtx.Logger.Warn("swipe volume increment failed", "vacancy_id", req.VacancyID, "err", err)
	} else if err := s.appCtx.RedisCache.IncrOrgSwipeVolume(ctx, orgID); err != nil {
		s.appCtx.Logger.Warn("swipe volume cache bump failed", "org_id", orgID, "err", err)
	}

	streak, err := s.swipes.TouchStreak(ctx, req.VolunteerID, time.Now())
	if err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}

	resp := swipeResponse{StreakDays: streak}
	if liked {
		matchRow, created, err := s.matches.EnsureMatch(ctx, req.VolunteerID, req.VacancyID)
		if err != nil {
			svcErr.WriteHTTP(w, err)
			return
		}
		resp.Matched = true
		resp.MatchID = &matchRow.PublicID
		resp.Status = &matchRow.Status

		if created {
			s.fireMatchNotification(ctx, vol, vac, matchRow.PublicID)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteSwipe retracts a swipe; any match for the pair goes
// with it.
func (s *Service) HandleDeleteSwipe(w http.ResponseWriter, r *http.Request) {
	volunteerID, err := pathID(r, "volunteerId")
	if err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("volunteer id must be a valid uint64"))
		return
	}
	vacancyID, err := pathID(r, "vacancyId")
	if err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("vacancy id must be a valid uint64"))
		return
	}

	if err := s.swipes.DeleteSwipe(r.Context(), volunteerID, vacancyID); err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type matchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACCEPTED REJECTED COMPLETED"`
}

// HandleMatchStatus moves a match through its lifecycle
// (organisation accepting/rejecting, later completing). Invalid
// transitions are conflicts, not overwrites.
func (s *Service) HandleMatchStatus(w http.ResponseWriter, r *http.Request) {
	publicID := mux.Vars(r)["id"]

	var req matchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument("invalid request payload"))
		return
	}
	if err := validate.Struct(req); err != nil {
		svcErr.WriteHTTP(w, svcErr.InvalidArgument(err.Error()))
		return
	}

	matchRow, err := s.matches.Transition(r.Context(), publicID, req.Status)
	if err != nil {
		svcErr.WriteHTTP(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matchId": matchRow.PublicID,
		"status":  matchRow.Status,
	})
}

// fireMatchNotification resolves the org admin and dispatches the
// intent on its own goroutine. Resolution failures are logged only.
func (s *Service) fireMatchNotification(ctx context.Context, vol *db.Volunteer, vac *db.Vacancy, matchID string) {
	org, err := s.catalog.GetOrganisation(ctx, vac.OrgID)
	if err != nil {
		s.appCtx.Logger.Error("org lookup for notification failed", "org_id", vac.OrgID, "err", err)
		return
	}
	notify.Fire(s.appCtx.Notifier, s.appCtx.Logger, org.AdminEmail, vol.Name, vac.Title, matchID)
}

//
// helpers
//

func pathID(r *http.Request, key string) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)[key], 10, 64)
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
