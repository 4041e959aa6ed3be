package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/config"
)

// ReloadHandler reloads the classification lexicon from the configured path.
// With no path configured it restores the compiled-in defaults.
func (s *Server) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "reload"

	lex := config.DefaultLexicon()
	if s.Config.LexiconPath != "" {
		var err error
		lex, err = config.LoadLexicon(s.Config.LexiconPath)
		if err != nil {
			s.Logger.Error("lexicon reload failed", zap.Error(err), zap.String("path", s.Config.LexiconPath))
			s.instrument(endpoint, "POST", "500", start)
			writeError(w, http.StatusInternalServerError, "reload failed")
			return
		}
	}
	s.Engine.ReloadLexicon(lex)

	s.instrument(endpoint, "POST", "204", start)
	w.WriteHeader(http.StatusNoContent)
}
