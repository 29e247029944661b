package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NiloCK/model-identity-eval/internal/eval"
	"github.com/NiloCK/model-identity-eval/internal/provider"
	"github.com/NiloCK/model-identity-eval/internal/runner"
	"github.com/NiloCK/model-identity-eval/internal/store"
)

type runRequest struct {
	Eval     string           `json:"eval"`
	Provider string           `json:"provider"`
	Model    string           `json:"model"`
	Mode     string           `json:"mode"`
	Response string           `json:"response"`
	Filter   string           `json:"filter"`
	Behavior *behaviorRequest `json:"behavior,omitempty"`
}

// behaviorRequest mirrors provider.AdversarialBehavior for adversarial-mock
// runs. Omitting it yields a model that answers direct questions correctly
// and resists manipulation.
type behaviorRequest struct {
	CorrectOnDirect         bool `json:"correct_on_direct"`
	SusceptibleToFakeSwitch bool `json:"susceptible_to_fake_switch"`
	AcceptsFalseCorrections bool `json:"accepts_false_corrections"`
}

type evalSummary struct {
	EvalName      string   `json:"eval_name"`
	Description   string   `json:"description,omitempty"`
	TestCases     int      `json:"test_cases"`
	Models        []string `json:"models"`
	ScoringMethod string   `json:"scoring_method"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListEvals(c *gin.Context) {
	cfgs, err := eval.LoadDir(s.evalsDir())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]evalSummary, 0, len(cfgs))
	for _, cfg := range cfgs {
		out = append(out, summarizeEval(cfg))
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].EvalName) < strings.ToLower(out[j].EvalName)
	})

	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetEval(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing eval name"))
		return
	}

	cfg, err := s.findEval(name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("eval %q not found", name))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleStartRun(c *gin.Context) {
	if s == nil || s.store == nil || s.config == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	evalName := strings.TrimSpace(req.Eval)
	if evalName == "" {
		respondError(c, http.StatusBadRequest, errors.New("eval is required"))
		return
	}

	cfg, err := s.findEval(evalName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("eval %q not found", evalName))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		ids := cfg.ModelIDs()
		if len(ids) != 1 {
			respondError(c, http.StatusBadRequest, fmt.Errorf("model is required (configured: %s)", strings.Join(ids, ", ")))
			return
		}
		modelID = ids[0]
	}

	var opts runner.Options
	if raw := strings.TrimSpace(req.Filter); raw != "" {
		f, err := eval.NewFilter(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		opts.Filter = f
	}

	behavior := provider.AdversarialBehavior{CorrectOnDirect: true}
	if req.Behavior != nil {
		behavior = provider.AdversarialBehavior{
			CorrectOnDirect:         req.Behavior.CorrectOnDirect,
			SusceptibleToFakeSwitch: req.Behavior.SusceptibleToFakeSwitch,
			AcceptsFalseCorrections: req.Behavior.AcceptsFalseCorrections,
		}
	}

	mc, _ := cfg.Model(modelID)
	p, err := provider.New(s.config, provider.Spec{
		Kind:           req.Provider,
		ModelID:        modelID,
		Mode:           provider.Mode(strings.TrimSpace(req.Mode)),
		CustomResponse: req.Response,
		Behavior:       behavior,
		Expected:       mc.ExpectedAnswers,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	r, err := runner.New(cfg, opts)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	report, err := r.RunModel(c.Request.Context(), p, modelID)
	if err != nil {
		var unknown *runner.UnknownModelError
		if errors.As(err, &unknown) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	id, err := s.store.SaveReport(c.Request.Context(), report)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"run_id": id,
		"report": report,
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	limit, err := parseLimitParam(c.Query("limit"), 20)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	since, err := parseTimeParam(c.Query("since"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	until, err := parseTimeParam(c.Query("until"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	filter := store.RunFilter{
		EvalName: strings.TrimSpace(c.Query("eval")),
		ModelID:  strings.TrimSpace(c.Query("model")),
		Since:    since,
		Until:    until,
		Limit:    limit,
	}

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetRunCases(c *gin.Context) {
	if s == nil || s.store == nil {
		respondError(c, http.StatusInternalServerError, errors.New("server not initialized"))
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	if _, err := s.store.GetRun(c.Request.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, fmt.Errorf("run %q not found", id))
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	cases, err := s.store.GetCaseResults(c.Request.Context(), id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, cases)
}

// findEval loads the eval whose eval_name matches name. Matching on the
// declared name keeps file names out of the API surface.
func (s *Server) findEval(name string) (*eval.Config, error) {
	cfgs, err := eval.LoadDir(s.evalsDir())
	if err != nil {
		return nil, err
	}
	for _, cfg := range cfgs {
		if strings.EqualFold(strings.TrimSpace(cfg.EvalName), name) {
			return cfg, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *Server) evalsDir() string {
	if s != nil && s.config != nil && strings.TrimSpace(s.config.EvalsDir) != "" {
		return s.config.EvalsDir
	}
	return "evals"
}

func summarizeEval(cfg *eval.Config) evalSummary {
	method := strings.TrimSpace(cfg.Scoring.Method)
	if method == "" {
		method = eval.DefaultScoringMethod
	}
	return evalSummary{
		EvalName:      cfg.EvalName,
		Description:   cfg.Description,
		TestCases:     len(cfg.TestCases),
		Models:        cfg.ModelIDs(),
		ScoringMethod: method,
	}
}

func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		c.Status(status)
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseLimitParam(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("limit must be > 0")
	}
	return v, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339 or YYYY-MM-DD)", raw)
}
