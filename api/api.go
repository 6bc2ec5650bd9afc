// Package api exposes the pool's query surface and authentication boundary
// over HTTP. All endpoints are read-only with respect to the ledger: state
// mutations happen through the engine's Go API, not this surface.
package api

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/rony4d/go-opera-pool/pool/engine"
	"github.com/rony4d/go-opera-pool/pool/sigauth"
	"github.com/rony4d/go-opera-pool/store"
)

// PoolAPI serves the pool query surface. The store is optional; without it
// the claim-history endpoint responds 404.
type PoolAPI struct {
	pool     *engine.Pool
	verifier *sigauth.Verifier
	store    *store.Store
}

// New creates the API over the given engine. st may be nil.
func New(p *engine.Pool, st *store.Store) *PoolAPI {
	return &PoolAPI{
		pool:     p,
		verifier: sigauth.New(p),
		store:    st,
	}
}

// Mount registers the API routes on a router.
func (a *PoolAPI) Mount(router *mux.Router) {
	sub := router.PathPrefix("/").Subrouter()
	sub.Path("/pool").Methods(http.MethodGet).HandlerFunc(wrapHandlerFunc(a.handlePoolInfo))
	sub.Path("/pool/tier").Methods(http.MethodGet).HandlerFunc(wrapHandlerFunc(a.handleTier))
	sub.Path("/pool/claims").Methods(http.MethodGet).HandlerFunc(wrapHandlerFunc(a.handleClaims))
	sub.Path("/participants/{address}").Methods(http.MethodGet).HandlerFunc(wrapHandlerFunc(a.handleParticipant))
	sub.Path("/auth/verify").Methods(http.MethodPost).HandlerFunc(wrapHandlerFunc(a.handleVerify))
}

func (a *PoolAPI) handlePoolInfo(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, a.pool.Info())
}

func (a *PoolAPI) handleTier(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, map[string]uint8{"tier": a.pool.TierLevel()})
}

func (a *PoolAPI) handleParticipant(w http.ResponseWriter, req *http.Request) error {
	hexAddr := mux.Vars(req)["address"]
	if !common.IsHexAddress(hexAddr) {
		return badRequest(errors.New("invalid address"))
	}
	return writeJSON(w, a.pool.Participant(common.HexToAddress(hexAddr)))
}

func (a *PoolAPI) handleClaims(w http.ResponseWriter, req *http.Request) error {
	if a.store == nil {
		return &httpError{cause: errors.New("claim history not enabled"), status: http.StatusNotFound}
	}
	from, err := queryUint(req, "from", 1)
	if err != nil {
		return badRequest(err)
	}
	last, err := a.store.LastClaimSeq()
	if err != nil {
		return err
	}
	to, err := queryUint(req, "to", last)
	if err != nil {
		return badRequest(err)
	}
	claims, err := a.store.Claims(from, to)
	if err != nil {
		return err
	}
	if claims == nil {
		claims = []engine.ClaimResult{}
	}
	return writeJSON(w, claims)
}

// verifyRequest is the authentication-boundary input: a 256-bit challenge
// hash and a 65-byte recoverable signature, both hex.
type verifyRequest struct {
	Hash      common.Hash   `json:"hash"`
	Signature hexutil.Bytes `json:"signature"`
}

// verifyResponse carries the fixed 4-byte marker as data. The boundary
// never responds with an exception for a failed verification; malformed
// input (including a wrong-length signature) yields the failure marker with
// the reason alongside.
type verifyResponse struct {
	Marker hexutil.Bytes `json:"marker"`
	Error  string        `json:"error,omitempty"`
}

func (a *PoolAPI) handleVerify(w http.ResponseWriter, req *http.Request) error {
	var in verifyRequest
	if err := parseJSON(req.Body, &in); err != nil {
		return badRequest(errors.WithMessage(err, "body"))
	}
	marker, err := a.verifier.Verify(in.Hash, in.Signature)
	out := verifyResponse{Marker: marker[:]}
	if err != nil {
		out.Error = err.Error()
	}
	return writeJSON(w, out)
}

func queryUint(req *http.Request, name string, def uint64) (uint64, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(err, "query %s", name)
	}
	return v, nil
}
