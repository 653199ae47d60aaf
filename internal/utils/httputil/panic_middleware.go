package httputil

import (
	"net/http"
	"runtime"

	"github.com/sirupsen/logrus"
)

const stackTraceBuffSize = 1024

type PanicMiddleware struct {
	log *logrus.Entry
}

func NewPanicMiddleware(log *logrus.Logger) *PanicMiddleware {
	return &PanicMiddleware{log: logrus.NewEntry(log)}
}

func (pm *PanicMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				buf := make([]byte, stackTraceBuffSize)

				n := runtime.Stack(buf, false)
				for n == len(buf) {
					buf = make([]byte, len(buf)*2)
					n = runtime.Stack(buf, false)
				}
				pm.log.WithField("stack", string(buf[:n])).Warnln("panic recovered", rec)
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
