package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type panelService interface {
	VehicleIDs(ctx context.Context) ([]string, error)
	Panel(ctx context.Context, req PanelRequest) (Panel, error)
	Rows(ctx context.Context, vehicleID string, sortByTime bool) ([]PositionRecord, error)
	Status() (DatasetStatus, bool)
}

type dashboardAPI struct {
	dash     panelService
	log      *zap.Logger
	validate *validator.Validate
	trans    ut.Translator
}

func newDashboardAPI(dash panelService, log *zap.Logger) *dashboardAPI {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return &dashboardAPI{dash: dash, log: log, validate: validate, trans: trans}
}

// panelQuery is the raw selection as it arrives on the wire.
type panelQuery struct {
	VehicleID string `validate:"required,max=128"`
	Sort      string `validate:"omitempty,boolean"`
	Raw       string `validate:"omitempty,boolean"`
}

func (q panelQuery) request() PanelRequest {
	req := PanelRequest{VehicleID: q.VehicleID, SortByTime: true}
	if q.Sort != "" {
		req.SortByTime, _ = strconv.ParseBool(q.Sort)
	}
	if q.Raw != "" {
		req.ShowRaw, _ = strconv.ParseBool(q.Raw)
	}
	return req
}

// parsePanelQuery validates the vehicle id and the sort/raw toggles shared by
// the REST panel routes and the websocket subscription.
func (api *dashboardAPI) parsePanelQuery(r *http.Request, vehicleID string) (PanelRequest, error) {
	query := r.URL.Query()
	q := panelQuery{
		VehicleID: vehicleID,
		Sort:      query.Get("sort"),
		Raw:       query.Get("raw"),
	}
	if err := api.validate.Struct(q); err != nil {
		return PanelRequest{}, fmt.Errorf("validation error: %v", api.translateError(err))
	}
	return q.request(), nil
}

func (api *dashboardAPI) translateError(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, e.Translate(api.trans))
	}
	return out
}

func (api *dashboardAPI) health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	env := envelope{"status": "ok"}
	if status, ok := api.dash.Status(); ok {
		env["dataset"] = status
	}
	if err := writeJSON(w, http.StatusOK, env); err != nil {
		api.failedResponse(w, r, err)
	}
}

func (api *dashboardAPI) listVehicles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ids, err := api.dash.VehicleIDs(r.Context())
	if err != nil {
		api.failedResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, envelope{"data": ids}); err != nil {
		api.failedResponse(w, r, err)
	}
}

func (api *dashboardAPI) vehiclePanel(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req, err := api.parsePanelQuery(r, p.ByName("id"))
	if err != nil {
		api.badRequestResponse(w, r, err)
		return
	}
	panel, err := api.dash.Panel(r.Context(), req)
	if err != nil {
		api.failedResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, envelope{"data": panel}); err != nil {
		api.failedResponse(w, r, err)
	}
}

func (api *dashboardAPI) vehicleRows(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	req, err := api.parsePanelQuery(r, p.ByName("id"))
	if err != nil {
		api.badRequestResponse(w, r, err)
		return
	}
	rows, err := api.dash.Rows(r.Context(), req.VehicleID, req.SortByTime)
	if err != nil {
		api.failedResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, envelope{"data": rows}); err != nil {
		api.failedResponse(w, r, err)
	}
}

// subscribe validates /ws?vehicle=<id>[&sort=bool][&raw=bool] before the
// upgrade so bad input gets the same 400 as the REST routes.
func (api *dashboardAPI) subscribe(hub *wsHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := api.parsePanelQuery(r, r.URL.Query().Get("vehicle"))
		if err != nil {
			api.badRequestResponse(w, r, err)
			return
		}
		hub.handleWebSocket(w, r, req)
	}
}

func newRouter(api *dashboardAPI, hub *wsHub, cfg ServerConfig, log *zap.Logger) http.Handler {
	router := httprouter.New()
	router.GET("/api/health", api.health)
	router.GET("/api/vehicles", api.listVehicles)
	router.GET("/api/vehicles/:id/panel", api.vehiclePanel)
	router.GET("/api/vehicles/:id/rows", api.vehicleRows)
	router.HandlerFunc(http.MethodGet, "/ws", api.subscribe(hub))
	if cfg.StaticDir != "" {
		router.NotFound = http.FileServer(http.Dir(cfg.StaticDir))
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})

	chain := []alice.Constructor{corsHandler.Handler, requestID, accessLog(log), api.recoverPanic}
	if cfg.RateLimit > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
		chain = append(chain, api.rateLimit(limiter))
	}
	return alice.New(chain...).Then(router)
}
