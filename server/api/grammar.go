package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/earley/server/dao"
	"github.com/dekarrin/earley/server/grammars"
	"github.com/dekarrin/earley/server/middle"
	"github.com/dekarrin/earley/server/result"
	"github.com/dekarrin/earley/server/serr"
	"github.com/go-chi/chi/v5"
)

func grammarInfoModel(g dao.GrammarCache) GrammarInfo {
	return GrammarInfo{
		URI:     PathPrefix + "/grammars/" + g.Name + "/" + g.Version,
		Name:    g.Name,
		Version: g.Version,
		Created: g.Created.Format(time.RFC3339),
	}
}

// HTTPCreateGrammar returns a HandlerFunc that registers a new compiled
// grammar descriptor. Only a Normal or Admin user may register grammars.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateGrammar)
}

func (api API) epCreateGrammar(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)
	if user.Role == dao.Guest {
		return result.Forbidden("user '%s' (role %s) registration of new grammar: forbidden", user.Username, user.Role)
	}

	var desc grammars.GrammarDescriptor
	if err := parseJSON(req, &desc); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if desc.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty name")
	}
	if desc.Version == "" {
		return result.BadRequest("version: property is empty or missing from request", "empty version")
	}

	cache, err := api.Grammars.Register(req.Context(), desc)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("grammar with that name and version already exists", "grammar '%s' v%s already exists", desc.Name, desc.Version)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(grammarInfoModel(cache), "user '%s' registered grammar '%s' v%s", user.Username, cache.Name, cache.Version)
}

// HTTPGetAllGrammars returns a HandlerFunc that lists every registered
// (name, version) pair.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllGrammars)
}

func (api API) epGetAllGrammars(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	caches, err := api.Grammars.ListAll(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]GrammarInfo, len(caches))
	for i := range caches {
		resp[i] = grammarInfoModel(caches[i])
	}

	return result.OK(resp, "user '%s' got all grammars", user.Username)
}

// HTTPGetGrammarVersions returns a HandlerFunc that lists every registered
// version of one named grammar.
func (api API) HTTPGetGrammarVersions() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGrammarVersions)
}

func (api API) epGetGrammarVersions(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)
	name := chi.URLParam(req, "name")

	caches, err := api.Grammars.ListVersions(req.Context(), name)
	if err != nil {
		return result.InternalServerError(err.Error())
	}
	if len(caches) == 0 {
		return result.NotFound()
	}

	resp := make([]GrammarInfo, len(caches))
	for i := range caches {
		resp[i] = grammarInfoModel(caches[i])
	}

	return result.OK(resp, "user '%s' got versions of grammar '%s'", user.Username, name)
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes one registered
// grammar version. Only a Normal or Admin user may delete grammars.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteGrammar)
}

func (api API) epDeleteGrammar(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)
	if user.Role == dao.Guest {
		return result.Forbidden("user '%s' (role %s) deletion of grammar: forbidden", user.Username, user.Role)
	}

	name := chi.URLParam(req, "name")
	version := chi.URLParam(req, "version")

	cache, err := api.Grammars.Delete(req.Context(), name, version)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.NoContent("user '%s' deleted grammar '%s' v%s", user.Username, cache.Name, cache.Version)
}
