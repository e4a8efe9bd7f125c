package web

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"socialsync/internal/editor"
	"socialsync/internal/model"
)

type captionSuggestions struct {
	Prompt   string           `json:"prompt"`
	Captions []editor.Caption `json:"captions"`
}

func (s *Server) handleSuggestCaptions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string `json:"platform"`
		Prompt   string `json:"prompt"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	p, err := model.ParsePlatform(body.Platform)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	captions, err := editor.SuggestCaptions(string(p), body.Prompt)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	prompt := strings.TrimSpace(body.Prompt)
	if prompt == "" {
		prompt = editor.DefaultPrompt(p)
	}
	writeData(w, http.StatusOK, captionSuggestions{Prompt: prompt, Captions: captions})
}

// handleQuickCaption backs the editor's one-click suggestion.
func (s *Server) handleQuickCaption(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"caption": editor.SuggestCaption(nil)})
}

func (s *Server) handleListGenerators(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, editor.Generators(model.Platform(strings.ToLower(r.URL.Query().Get("platform")))))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type     editor.ContentType `json:"type"`
		Platform string             `json:"platform"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if body.Type == "" {
		body.Type = editor.ContentCaption
	}
	content, err := editor.Generate(mux.Vars(r)["id"], body.Type, body.Platform)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"type": body.Type, "content": content})
}
