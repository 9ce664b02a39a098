package api

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are in. Rather these are the models that are received
// from and sent to the client.

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		Core   string `json:"core"`
	} `json:"version"`
}

type UserModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	Email          string `json:"email,"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout,omitempty"`
	LastLoginTime  string `json:"last_login,omitempty"`
}

type UserUpdateRequest struct {
	ID       UpdateString `json:"id,omitempty"`
	Username UpdateString `json:"username,omitempty"`
	Password UpdateString `json:"password,omitempty"`
	Email    UpdateString `json:"email,"`
	Role     UpdateString `json:"role,omitempty"`
}

type UpdateString struct {
	Update bool   `json:"u,omitempty"`
	Value  string `json:"v,omitempty"`
}

// GrammarInfo summarizes a registered grammar for listing; it does not
// include the compiled descriptor itself.
type GrammarInfo struct {
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Created string `json:"created,omitempty"`
}

// SessionModel is the client-facing view of a dao.Session.
type SessionModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	GrammarName    string `json:"grammar_name"`
	GrammarVersion string `json:"grammar_version"`
	Created        string `json:"created,omitempty"`
	BytesFed       int    `json:"bytes_fed"`
	Accepting      bool   `json:"accepting"`
	Closed         bool   `json:"closed"`
}

// SessionCreateRequest opens a new session against an already-registered
// grammar. Vocab is optional; each entry is the raw UTF-8 bytes of one
// vocabulary token. If omitted, the session uses the default
// single-byte-per-token vocabulary.
type SessionCreateRequest struct {
	GrammarName    string   `json:"grammar_name"`
	GrammarVersion string   `json:"grammar_version"`
	Vocab          []string `json:"vocab,omitempty"`
}

// ApplyTokensRequest feeds NumSkip-already-committed-then-new tokens to a
// session, exactly mirroring earley.Parser.ApplyTokens's numSkip contract.
type ApplyTokensRequest struct {
	Tokens  []string `json:"tokens"`
	NumSkip int      `json:"num_skip,omitempty"`
}

// BiasResponse is the set of vocabulary token IDs legal to generate next.
type BiasResponse struct {
	TokenIDs []int `json:"token_ids"`
}

// CaptureModel is one named capture accumulated by a session's parser.
type CaptureModel struct {
	Name  string `json:"name"`
	Bytes string `json:"bytes"`
}

// StatsModel reports a session's running work counters.
type StatsModel struct {
	Rows            int `json:"rows"`
	DefinitiveBytes int `json:"definitive_bytes"`
	LexerOps        int `json:"lexer_ops"`
	AllItems        int `json:"all_items"`
	HiddenBytes     int `json:"hidden_bytes"`
}

// ModelVariablesResponse lists the model variables a session's parser has
// scanned so far, in first-seen order.
type ModelVariablesResponse struct {
	Names []string `json:"names"`
}

// GenGrammarResponse reports the single nested-grammar symbol predicted in
// a session's current row, if exactly one is live. Pending is false if the
// row is ambiguous (more than one candidate) or no nested grammar is live,
// in which case the client must fall back to raw byte bias.
type GenGrammarResponse struct {
	Pending bool   `json:"pending"`
	SymIdx  int    `json:"sym_idx,omitempty"`
	RefName string `json:"ref_name,omitempty"`
}

// ScanGenGrammarRequest splices an already-generated nested-grammar
// completion back into a session as a single terminal match. SymIdx must be
// the same value GenGrammarResponse.SymIdx last reported.
type ScanGenGrammarRequest struct {
	SymIdx int    `json:"sym_idx"`
	Bytes  string `json:"bytes"`
}
