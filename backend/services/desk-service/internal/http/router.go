package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	SessionStart         http.HandlerFunc
	SessionActivate      http.HandlerFunc
	SessionEnd           http.HandlerFunc
	SessionExtend        http.HandlerFunc
	SessionPaymentStatus http.HandlerFunc
	SessionsActive       http.HandlerFunc
	SessionsByDate       http.HandlerFunc
	SessionsPending      http.HandlerFunc
	Stations             http.HandlerFunc
	StationSave          http.HandlerFunc
	DashboardWS          http.HandlerFunc
	Health               http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.SessionStart != nil {
		mux.Handle("/sessions/start", method(http.MethodPost, routes.SessionStart))
	}
	if routes.SessionActivate != nil {
		mux.Handle("/sessions/activate", method(http.MethodPost, routes.SessionActivate))
	}
	if routes.SessionEnd != nil {
		mux.Handle("/sessions/end", method(http.MethodPost, routes.SessionEnd))
	}
	if routes.SessionExtend != nil {
		mux.Handle("/sessions/extend", method(http.MethodPost, routes.SessionExtend))
	}
	if routes.SessionPaymentStatus != nil {
		mux.Handle("/sessions/payment-status", method(http.MethodPost, routes.SessionPaymentStatus))
	}
	if routes.SessionsActive != nil {
		mux.Handle("/sessions/active", method(http.MethodGet, routes.SessionsActive))
	}
	if routes.SessionsByDate != nil {
		mux.Handle("/sessions", method(http.MethodGet, routes.SessionsByDate))
	}
	if routes.SessionsPending != nil {
		mux.Handle("/sessions/pending", method(http.MethodGet, routes.SessionsPending))
	}
	if routes.Stations != nil {
		mux.Handle("/stations", splitByMethod(routes.Stations, routes.StationSave))
	}
	if routes.DashboardWS != nil {
		mux.Handle("/dashboard/ws", method(http.MethodGet, routes.DashboardWS))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func splitByMethod(get, post http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if get != nil {
				get(w, r)
				return
			}
		case http.MethodPost:
			if post != nil {
				post(w, r)
				return
			}
		}
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
