package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earleyerr"
	"github.com/dekarrin/earley/server/dao"
	"github.com/dekarrin/earley/server/middle"
	"github.com/dekarrin/earley/server/result"
	"github.com/dekarrin/earley/server/serr"
)

func sessionModel(s dao.Session) SessionModel {
	return SessionModel{
		URI:            PathPrefix + "/sessions/" + s.ID.String(),
		ID:             s.ID.String(),
		UserID:         s.UserID.String(),
		GrammarName:    s.GrammarName,
		GrammarVersion: s.GrammarVersion,
		Created:        s.Created.Format(time.RFC3339),
		BytesFed:       s.BytesFed,
		Accepting:      s.Accepting,
		Closed:         s.Closed,
	}
}

// resultForParseErr translates an error from the earley core (a grammar
// violation, not a server malfunction) into a result.Result. Errors not
// classified by earleyerr are treated as internal server errors.
func resultForParseErr(err error, internalMsg string, args ...interface{}) result.Result {
	switch earleyerr.Classify(err) {
	case earleyerr.KindParseReject, earleyerr.KindStaticReject:
		return result.Err(http.StatusUnprocessableEntity, err.Error(), internalMsg, args...)
	case earleyerr.KindRowOverflow:
		return result.Err(http.StatusUnprocessableEntity, "grammar is too ambiguous at this position", internalMsg, args...)
	case earleyerr.KindConstruction:
		return result.BadRequest(err.Error(), internalMsg, args...)
	default:
		return result.InternalServerError(internalMsg, args...)
	}
}

// HTTPCreateSession returns a HandlerFunc that opens a new
// constrained-generation session against an already-registered grammar.
func (api API) HTTPCreateSession() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateSession)
}

func (api API) epCreateSession(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var createReq SessionCreateRequest
	if err := parseJSON(req, &createReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createReq.GrammarName == "" {
		return result.BadRequest("grammar_name: property is empty or missing from request", "empty grammar_name")
	}
	if createReq.GrammarVersion == "" {
		return result.BadRequest("grammar_version: property is empty or missing from request", "empty grammar_version")
	}

	var vocab [][]byte
	if len(createReq.Vocab) > 0 {
		vocab = make([][]byte, len(createReq.Vocab))
		for i, v := range createReq.Vocab {
			vocab[i] = []byte(v)
		}
	}

	sesh, err := api.Sessions.Open(req.Context(), user.ID, createReq.GrammarName, createReq.GrammarVersion, vocab)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.BadRequest("no such grammar '"+createReq.GrammarName+"' v"+createReq.GrammarVersion, err.Error())
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(sessionModel(sesh), "user '%s' opened session %s against grammar '%s' v%s", user.Username, sesh.ID, sesh.GrammarName, sesh.GrammarVersion)
}

// HTTPGetAllSessions returns a HandlerFunc that lists every session owned
// by the logged-in user.
func (api API) HTTPGetAllSessions() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllSessions)
}

func (api API) epGetAllSessions(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	seshes, err := api.Sessions.GetAllByUser(req.Context(), user.ID)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]SessionModel, len(seshes))
	for i := range seshes {
		resp[i] = sessionModel(seshes[i])
	}

	return result.OK(resp, "user '%s' got all sessions", user.Username)
}

// HTTPGetSession returns a HandlerFunc that retrieves one session's
// bookkeeping status. Only the owning user or an admin may retrieve it.
func (api API) HTTPGetSession() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetSession)
}

func (api API) epGetSession(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get session %s: forbidden", user.Username, user.Role, id)
	}

	return result.OK(sessionModel(sesh), "user '%s' got session %s", user.Username, id)
}

// HTTPApplyTokens returns a HandlerFunc that feeds a batch of tokens to a
// session's live parser.
func (api API) HTTPApplyTokens() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epApplyTokens)
}

func (api API) epApplyTokens(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) apply tokens to session %s: forbidden", user.Username, user.Role, id)
	}

	var applyReq ApplyTokensRequest
	if err := parseJSON(req, &applyReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	tokens := make([][]byte, len(applyReq.Tokens))
	for i, t := range applyReq.Tokens {
		tokens[i] = []byte(t)
	}

	updated, err := api.Sessions.ApplyTokens(req.Context(), id, tokens, applyReq.NumSkip)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		if earleyerr.Classify(err) != earleyerr.KindOther {
			return resultForParseErr(err, "session %s: apply tokens rejected: %s", id, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(sessionModel(updated), "user '%s' applied %d token(s) to session %s", user.Username, len(tokens), id)
}

// HTTPComputeBias returns a HandlerFunc that computes the vocabulary bias
// mask for a session's live parser's current position.
func (api API) HTTPComputeBias() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epComputeBias)
}

func (api API) epComputeBias(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) compute bias for session %s: forbidden", user.Username, user.Role, id)
	}

	bias, err := api.Sessions.ComputeBias(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(BiasResponse{TokenIDs: bias.Bits()}, "user '%s' computed bias for session %s", user.Username, id)
}

// HTTPGetCaptures returns a HandlerFunc that retrieves a session's
// accumulated named captures.
func (api API) HTTPGetCaptures() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetCaptures)
}

func (api API) epGetCaptures(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get captures for session %s: forbidden", user.Username, user.Role, id)
	}

	captures, err := api.Sessions.Captures(id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	resp := make([]CaptureModel, len(captures))
	for i, c := range captures {
		resp[i] = CaptureModel{Name: c.Name, Bytes: string(c.Bytes)}
	}

	return result.OK(resp, "user '%s' got captures for session %s", user.Username, id)
}

// HTTPGetStats returns a HandlerFunc that reports a session's running work
// counters.
func (api API) HTTPGetStats() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetStats)
}

func (api API) epGetStats(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get stats for session %s: forbidden", user.Username, user.Role, id)
	}

	stats, err := api.Sessions.Stats(id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	resp := StatsModel{
		Rows:            stats.Rows,
		DefinitiveBytes: stats.DefinitiveBytes,
		LexerOps:        stats.LexerOps,
		AllItems:        stats.AllItems,
		HiddenBytes:     stats.HiddenBytes,
	}
	return result.OK(resp, "user '%s' got stats for session %s", user.Username, id)
}

// HTTPGetModelVariables returns a HandlerFunc that lists the model
// variables a session's parser has scanned so far.
func (api API) HTTPGetModelVariables() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetModelVariables)
}

func (api API) epGetModelVariables(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get model variables for session %s: forbidden", user.Username, user.Role, id)
	}

	vars, err := api.Sessions.ModelVariables(id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = string(v)
	}
	return result.OK(ModelVariablesResponse{Names: names}, "user '%s' got model variables for session %s", user.Username, id)
}

// HTTPGetGenGrammar returns a HandlerFunc that reports the single live
// nested-grammar symbol prediction for a session's current row, if any.
func (api API) HTTPGetGenGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetGenGrammar)
}

func (api API) epGetGenGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get gen-grammar for session %s: forbidden", user.Username, user.Role, id)
	}

	sym, ref, ok, err := api.Sessions.PendingGenGrammar(id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if !ok {
		return result.OK(GenGrammarResponse{Pending: false}, "user '%s' checked gen-grammar for session %s: none pending", user.Username, id)
	}

	resp := GenGrammarResponse{Pending: true, SymIdx: int(sym)}
	if ref != nil {
		resp.RefName = ref.Name
	}
	return result.OK(resp, "user '%s' checked gen-grammar for session %s: %s pending", user.Username, id, resp.RefName)
}

// HTTPScanGenGrammar returns a HandlerFunc that splices an
// already-generated nested-grammar completion back into a session.
func (api API) HTTPScanGenGrammar() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epScanGenGrammar)
}

func (api API) epScanGenGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) scan gen-grammar for session %s: forbidden", user.Username, user.Role, id)
	}

	var scanReq ScanGenGrammarRequest
	if err := parseJSON(req, &scanReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	updated, err := api.Sessions.ScanGenGrammar(req.Context(), id, grammar.SymIdx(scanReq.SymIdx), []byte(scanReq.Bytes))
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		if earleyerr.Classify(err) != earleyerr.KindOther {
			return resultForParseErr(err, "session %s: scan gen-grammar rejected: %s", id, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(sessionModel(updated), "user '%s' scanned gen-grammar result into session %s", user.Username, id)
}

// HTTPCloseSession returns a HandlerFunc that closes a session and drops
// its live parser.
func (api API) HTTPCloseSession() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCloseSession)
}

func (api API) epCloseSession(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	sesh, err := api.Sessions.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if sesh.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) close session %s: forbidden", user.Username, user.Role, id)
	}

	_, err = api.Sessions.Close(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.NoContent("user '%s' closed session %s", user.Username, id)
}
