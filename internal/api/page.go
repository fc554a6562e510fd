package api

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/ShopMarketer/internal/identity"
	"github.com/BTreeMap/ShopMarketer/internal/prompt"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{"markdown": renderMarkdown}).
	ParseFS(templateFS, "templates/index.html"))

// pageView is everything the page template renders.
type pageView struct {
	Model      string
	Audiences  []prompt.Audience
	Platforms  []prompt.Platform
	Suggestion string // stored suggestion of the session, shown in the info panel
	Idea       ideaView
	Probe      *probeView
	Post       postView
}

type ideaView struct {
	Error  string
	Hint   string
	Notice string
}

type probeView struct {
	Models []string
	Found  bool
	Banner string
	Error  string
}

type postView struct {
	Audience    string
	Platform    string
	ProductInfo string
	Warning     string
	Error       string
	Done        string
	Text        string
}

func (s *Server) newPageView() pageView {
	return pageView{
		Model:     s.models.Model(),
		Audiences: prompt.Audiences(),
		Platforms: prompt.Platforms(),
		Post: postView{
			Audience: string(prompt.AudienceBeginner),
			Platform: string(prompt.PlatformInstagram),
		},
	}
}

// loadSuggestion fills the stored suggestion of the request's session.
func (s *Server) loadSuggestion(r *http.Request, view *pageView) {
	st, err := s.sessions.Load(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		slog.Warn("Server.loadSuggestion: failed to load session", "error", err)
		return
	}
	view.Suggestion = st.Suggestion
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	view := s.newPageView()
	s.loadSuggestion(r, &view)
	writePage(w, view)
}

func (s *Server) ideaPageHandler(w http.ResponseWriter, r *http.Request) {
	view := s.newPageView()
	out := s.runIdea(r.Context(), identity.SessionIDFromContext(r.Context()))
	switch {
	case out.err != nil:
		view.Idea.Error = fmt.Sprintf(msgIdeaError, out.err)
		view.Idea.Hint = msgIdeaHint
		s.loadSuggestion(r, &view)
	case out.saveErr != nil:
		view.Idea.Notice = msgIdeaNotKept
		view.Suggestion = out.state.Suggestion
	default:
		view.Suggestion = out.state.Suggestion
	}
	writePage(w, view)
}

func (s *Server) probePageHandler(w http.ResponseWriter, r *http.Request) {
	view := s.newPageView()
	s.loadSuggestion(r, &view)

	res, err := s.runProbe(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		view.Probe = &probeView{Error: fmt.Sprintf(msgProbeError, err)}
	} else {
		view.Probe = &probeView{Models: res.Models, Found: res.Found, Banner: probeBanner(res)}
	}
	writePage(w, view)
}

func (s *Server) postPageHandler(w http.ResponseWriter, r *http.Request) {
	view := s.newPageView()
	s.loadSuggestion(r, &view)

	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.postPageHandler: failed to parse form", "error", err)
		view.Post.Warning = msgPostBadOption
		writePage(w, view)
		return
	}
	view.Post.Audience = r.PostFormValue("audience")
	view.Post.Platform = r.PostFormValue("platform")
	view.Post.ProductInfo = r.PostFormValue("product_info")

	pc, err := prompt.NewPostContext(view.Post.ProductInfo, view.Post.Audience, view.Post.Platform)
	if err != nil {
		view.Post.Warning = postValidationMessage(err)
		writePage(w, view)
		return
	}

	text, err := s.runPost(r.Context(), identity.SessionIDFromContext(r.Context()), pc)
	if err != nil {
		view.Post.Error = fmt.Sprintf(msgPostError, err)
	} else {
		view.Post.Done = msgPostDone
		view.Post.Text = text
	}
	writePage(w, view)
}

// postValidationMessage maps a validation error to the warning shown to the user.
func postValidationMessage(err error) string {
	if errors.Is(err, prompt.ErrEmptyProductInfo) {
		return msgPostEmpty
	}
	return msgPostBadOption
}
