package console

import (
	"net/http"

	gosession "github.com/go-session/session/v3"
)

// FlashKind selects the notification style.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
	FlashInfo    FlashKind = "info"
)

// Flash is a one-shot notification shown on the next rendered page.
type Flash struct {
	Kind    FlashKind
	Message string
}

const (
	flashKindKey    = "flash.kind"
	flashMessageKey = "flash.message"
)

// flashes keeps notifications in a per-browser cookie session. The
// retail session itself is process wide and never stored here.
type flashes struct {
	manager *gosession.Manager
}

func newFlashes(cookieName string) flashes {
	return flashes{manager: gosession.NewManager(
		gosession.SetCookieName(cookieName),
		gosession.SetExpired(600),
	)}
}

// put must run before anything is written to w.
func (f flashes) put(w http.ResponseWriter, r *http.Request, kind FlashKind, msg string) error {
	st, err := f.manager.Start(r.Context(), w, r)
	if err != nil {
		return err
	}
	st.Set(flashKindKey, string(kind))
	st.Set(flashMessageKey, msg)
	return st.Save()
}

// pop returns and clears the pending notification, if any.
func (f flashes) pop(w http.ResponseWriter, r *http.Request) *Flash {
	st, err := f.manager.Start(r.Context(), w, r)
	if err != nil {
		return nil
	}
	msg, ok := st.Get(flashMessageKey)
	if !ok {
		return nil
	}
	kind, _ := st.Get(flashKindKey)
	st.Delete(flashMessageKey)
	st.Delete(flashKindKey)
	_ = st.Save()

	fl := &Flash{Kind: FlashInfo}
	fl.Message, _ = msg.(string)
	if k, ok := kind.(string); ok {
		fl.Kind = FlashKind(k)
	}
	return fl
}
