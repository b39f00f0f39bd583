package session

import "net/http"

// Middleware resolves the session into the request context and emits the
// session cookie exactly once per request.
//
// Emission happens lazily at the first header write (or after the handler
// returns, whichever comes first), so it runs before any downstream code
// that flushes headers. A panic in the handler marks the request as an
// exception path — emission is then skipped when the manager is configured
// with CookieOnException=false — and the panic is re-raised for an outer
// recoverer. After emission the record is detached from the store;
// deferred reads serve the shadow copy.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, err := m.Resolve(r.Context(), r)
		if err != nil {
			m.log.ErrorContext(r.Context(), "session resolution failed", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ew := &emitWriter{ResponseWriter: w, mgr: m, rec: rec}
		defer func() {
			if p := recover(); p != nil {
				ew.exception = true
				ew.emit()
				rec.Detach()
				panic(p)
			}
			ew.emit()
			rec.Detach()
		}()

		next.ServeHTTP(ew, r.WithContext(WithRecord(r.Context(), rec)))
	})
}

// emitWriter defers cookie emission until response headers are about to be
// written. A failed emission (oversized cookie) turns the response into a
// 500 and suppresses the handler's body.
type emitWriter struct {
	http.ResponseWriter
	mgr       *Manager
	rec       *Record
	exception bool
	emitted   bool
	failed    bool
}

func (w *emitWriter) emit() {
	if w.emitted {
		return
	}
	w.emitted = true
	if err := w.mgr.Emit(w.ResponseWriter, w.rec, w.exception); err != nil {
		w.mgr.log.Error("session cookie emission failed", "error", err)
		w.failed = true
		w.ResponseWriter.WriteHeader(http.StatusInternalServerError)
	}
}

func (w *emitWriter) WriteHeader(code int) {
	w.emit()
	if w.failed {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *emitWriter) Write(b []byte) (int, error) {
	w.emit()
	if w.failed {
		// Pretend the write succeeded so handlers don't double-report.
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap supports http.ResponseController passthrough.
func (w *emitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
