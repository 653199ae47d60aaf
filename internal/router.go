package internal

import (
	"github.com/Ifelsik/livecall/internal/delivery"
	"github.com/Ifelsik/livecall/internal/utils/httputil"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func HandleRoutes(handlers *delivery.HistoryHandlers, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(httputil.NewPanicMiddleware(log).Middleware, httputil.NewLoggingMiddleware(log).Middleware)

	r.HandleFunc("/calls", handlers.GetCallsHistory).Methods("GET")
	r.HandleFunc("/calls/{id:[0-9]+}", handlers.GetCallByID).Methods("GET")

	return r
}
